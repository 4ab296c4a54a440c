package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestWallet_IsAddressed(t *testing.T) {
	tests := []struct {
		name    string
		address *string
		want    bool
	}{
		{"nil address", nil, false},
		{"empty address", strPtr(""), false},
		{"addressed", strPtr("0xabc123"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Wallet{Address: tt.address}
			assert.Equal(t, tt.want, w.IsAddressed())
		})
	}
}

func TestWallet_ReleaseTarget(t *testing.T) {
	addressed := &Wallet{Address: strPtr("0xabc")}
	assert.Equal(t, WalletStatusAvailable, addressed.ReleaseTarget())

	bare := &Wallet{}
	assert.Equal(t, WalletStatusInitializing, bare.ReleaseTarget())
}

func TestOrder_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status OrderStatus
		want   bool
	}{
		{"creating wallet", OrderStatusCreatingWallet, false},
		{"awaiting payment", OrderStatusAwaitingPayment, false},
		{"paid", OrderStatusPaid, true},
		{"expired", OrderStatusExpired, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.status}
			assert.Equal(t, tt.want, o.IsTerminal())
		})
	}
}

func TestOrder_IsPayable(t *testing.T) {
	assert.True(t, (&Order{Status: OrderStatusAwaitingPayment}).IsPayable())
	assert.False(t, (&Order{Status: OrderStatusCreatingWallet}).IsPayable())
	assert.False(t, (&Order{Status: OrderStatusPaid}).IsPayable())
}

func TestItemsTotal(t *testing.T) {
	items := []OrderItem{
		{Name: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{Name: "Gadget", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}

	assert.True(t, ItemsTotal(items).Equal(decimal.RequireFromString("25.00")))
	assert.True(t, ItemsTotal(nil).IsZero())
}

func TestCart_Subtotal(t *testing.T) {
	p1 := &Product{Name: "Widget", Price: decimal.RequireFromString("10.00")}
	p2 := &Product{Name: "Gadget", Price: decimal.RequireFromString("5.00")}

	cart := &Cart{Items: []CartItem{
		{Quantity: 2, Product: p1},
		{Quantity: 1, Product: p2},
	}}

	assert.True(t, cart.Subtotal().Equal(decimal.RequireFromString("25.00")))
	assert.False(t, cart.IsEmpty())
	assert.True(t, (&Cart{}).IsEmpty())
}

func TestPayout_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status PayoutStatus
		want   bool
	}{
		{"initiated", PayoutStatusInitiated, false},
		{"pending", PayoutStatusPending, false},
		{"completed", PayoutStatusCompleted, true},
		{"failed", PayoutStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payout{Status: tt.status}
			assert.Equal(t, tt.want, p.IsTerminal())
		})
	}
}
