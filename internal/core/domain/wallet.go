package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletStatus represents the pool lifecycle state of a deposit wallet.
type WalletStatus string

const (
	// WalletStatusInitializing means the partner account exists but has no
	// on-chain address yet.
	WalletStatusInitializing WalletStatus = "INITIALIZING"
	// WalletStatusAvailable means the wallet is addressed and free to claim.
	WalletStatusAvailable WalletStatus = "AVAILABLE"
	// WalletStatusAssigned means exactly one order holds the wallet.
	WalletStatusAssigned WalletStatus = "ASSIGNED"
)

// Wallet is a reusable custodial deposit address drawn from the managed pool.
// Wallets are provisioned at bootstrap or replenishment and never destroyed.
type Wallet struct {
	ID                uuid.UUID    `json:"id"`
	ExternalAccountID string       `json:"external_account_id"` // Mural account id, unique
	Address           *string      `json:"address,omitempty"`
	Chain             *string      `json:"chain,omitempty"`
	Status            WalletStatus `json:"status"`
	AssignedOrderID   *uuid.UUID   `json:"assigned_order_id,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// IsAddressed returns true once the partner reported an on-chain address.
func (w *Wallet) IsAddressed() bool {
	return w.Address != nil && *w.Address != ""
}

// ReleaseTarget returns the status a wallet goes back to when its order
// resolves: AVAILABLE if addressed, INITIALIZING otherwise.
func (w *Wallet) ReleaseTarget() WalletStatus {
	if w.IsAddressed() {
		return WalletStatusAvailable
	}
	return WalletStatusInitializing
}
