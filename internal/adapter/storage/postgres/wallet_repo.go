package postgres

import (
	"context"
	"errors"
	"fmt"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = "id, external_account_id, address, chain, status, assigned_order_id, created_at"

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.ExternalAccountID, &w.Address, &w.Chain,
		&w.Status, &w.AssignedOrderID, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, external_account_id, address, chain, status, assigned_order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.ExternalAccountID, w.Address, w.Chain,
		w.Status, w.AssignedOrderID, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get wallet by id: %w", err)
	}
	return w, nil
}

// GetByAccountID fetches a wallet by the partner account id (non-locking read).
func (r *WalletRepo) GetByAccountID(ctx context.Context, accountID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE external_account_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, fmt.Errorf("get wallet by account id: %w", err)
	}
	return w, nil
}

// GetByAccountIDForUpdate fetches a wallet by partner account id with
// pessimistic locking. This MUST be called within a transaction.
func (r *WalletRepo) GetByAccountIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE external_account_id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, fmt.Errorf("get wallet for update by account id: %w", err)
	}
	return w, nil
}

// ClaimAvailable atomically flips one AVAILABLE wallet to ASSIGNED.
// FOR UPDATE SKIP LOCKED makes the pick non-blocking: rows already locked by
// concurrent claimants are ignored, so no two callers ever receive the same
// wallet and nobody waits on contention. Returns (nil, nil) when the pool has
// no free wallet.
func (r *WalletRepo) ClaimAvailable(ctx context.Context) (*domain.Wallet, error) {
	query := `UPDATE wallets SET status = $1
		WHERE id = (
			SELECT id FROM wallets
			WHERE status = $2
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + walletColumns

	w, err := scanWallet(r.pool.QueryRow(ctx, query, domain.WalletStatusAssigned, domain.WalletStatusAvailable))
	if err != nil {
		return nil, fmt.Errorf("claim available wallet: %w", err)
	}
	return w, nil
}

// ListByStatus returns all wallets in the given status.
func (r *WalletRepo) ListByStatus(ctx context.Context, status domain.WalletStatus) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE status = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("list wallets by status: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(
			&w.ID, &w.ExternalAccountID, &w.Address, &w.Chain,
			&w.Status, &w.AssignedOrderID, &w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// CountByStatus counts wallets in the given status.
func (r *WalletRepo) CountByStatus(ctx context.Context, status domain.WalletStatus) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wallets WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count wallets by status: %w", err)
	}
	return count, nil
}

// SetAssigned flips a wallet to ASSIGNED outside the claim fast path.
func (r *WalletRepo) SetAssigned(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE wallets SET status = $1 WHERE id = $2`, domain.WalletStatusAssigned, id)
	if err != nil {
		return fmt.Errorf("set wallet assigned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// AssignToOrder binds the wallet to an order within the order-creation
// transaction.
func (r *WalletRepo) AssignToOrder(ctx context.Context, tx pgx.Tx, walletID, orderID uuid.UUID) error {
	query := `UPDATE wallets SET status = $1, assigned_order_id = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, domain.WalletStatusAssigned, orderID, walletID)
	if err != nil {
		return fmt.Errorf("assign wallet to order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// Activate fills the address reported by the partner and flips the wallet to
// AVAILABLE.
func (r *WalletRepo) Activate(ctx context.Context, id uuid.UUID, address, chain string) error {
	query := `UPDATE wallets SET status = $1, address = $2, chain = $3 WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, domain.WalletStatusAvailable, address, chain, id)
	if err != nil {
		return fmt.Errorf("activate wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// Release clears the order binding and sets the given status within the
// transaction that resolves the bound order.
func (r *WalletRepo) Release(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WalletStatus) error {
	query := `UPDATE wallets SET status = $1, assigned_order_id = NULL WHERE id = $2`

	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("release wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}
