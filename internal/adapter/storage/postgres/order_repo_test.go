package postgres

import (
	"context"
	"testing"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder() *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:                uuid.New(),
		Status:            domain.OrderStatusAwaitingPayment,
		Subtotal:          decimal.RequireFromString("25.00"),
		Total:             decimal.RequireFromString("25.00"),
		Address:           strPtr("0xdeadbeef"),
		Chain:             strPtr("POLYGON"),
		TokenSymbol:       "USDC",
		ExternalAccountID: strPtr("acct-1"),
		CreatedAt:         now,
		ExpiresAt:         now.Add(30 * time.Minute),
		Items: []domain.OrderItem{
			{Name: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{Name: "Gadget", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
		},
	}
}

func orderColumnNames() []string {
	return []string{"id", "status", "subtotal", "total", "address", "chain", "token_symbol",
		"external_account_id", "created_at", "expires_at", "tx_hash", "paid_at"}
}

func orderRow(o *domain.Order) *pgxmock.Rows {
	return pgxmock.NewRows(orderColumnNames()).AddRow(
		o.ID, o.Status, o.Subtotal, o.Total, o.Address, o.Chain, o.TokenSymbol,
		o.ExternalAccountID, o.CreatedAt, o.ExpiresAt, o.TxHash, o.PaidAt,
	)
}

func itemRows(o *domain.Order) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"name", "quantity", "unit_price"})
	for _, it := range o.Items {
		rows.AddRow(it.Name, it.Quantity, it.UnitPrice)
	}
	return rows
}

func TestOrderRepo_Create_InsertsItems(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	o := newTestOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.Status, o.Subtotal, o.Total, o.Address, o.Chain,
			o.TokenSymbol, o.ExternalAccountID, o.CreatedAt, o.ExpiresAt,
			o.TxHash, o.PaidAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(o.ID, "Widget", int32(2), o.Items[0].UnitPrice).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(o.ID, "Gadget", int32(1), o.Items[1].UnitPrice).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, o)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetByID_WithItems(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	o := newTestOrder()

	mock.ExpectQuery("SELECT .+ FROM orders WHERE id").
		WithArgs(o.ID).
		WillReturnRows(orderRow(o))
	mock.ExpectQuery("SELECT name, quantity, unit_price FROM order_items").
		WithArgs(o.ID).
		WillReturnRows(itemRows(o))

	result, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, o.ID, result.ID)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Widget", result.Items[0].Name)
	assert.True(t, result.Total.Equal(o.Total))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM orders WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(orderColumnNames()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetAwaitingByAccountForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	o := newTestOrder()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM orders.+ FOR UPDATE").
		WithArgs(domain.OrderStatusAwaitingPayment, "acct-1").
		WillReturnRows(orderRow(o))
	mock.ExpectQuery("SELECT name, quantity, unit_price FROM order_items").
		WithArgs(o.ID).
		WillReturnRows(itemRows(o))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetAwaitingByAccountForUpdate(context.Background(), tx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, o.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetAwaitingByAccountForUpdate_NoMatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM orders.+ FOR UPDATE").
		WithArgs(domain.OrderStatusAwaitingPayment, "acct-stray").
		WillReturnRows(pgxmock.NewRows(orderColumnNames()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetAwaitingByAccountForUpdate(context.Background(), tx, "acct-stray")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_MarkPaid(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()
	paidAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status .+ tx_hash .+ paid_at").
		WithArgs(domain.OrderStatusPaid, "0xhash", paidAt, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.MarkPaid(context.Background(), tx, id, "0xhash", paidAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_PromoteToAwaitingPayment_GuardsStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE orders SET status .+ WHERE id .+ AND status").
		WithArgs(domain.OrderStatusAwaitingPayment, "0xfeed", "ETHEREUM",
			id, domain.OrderStatusCreatingWallet).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.PromoteToAwaitingPayment(context.Background(), id, "0xfeed", "ETHEREUM")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_ListDue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	o := newTestOrder()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM orders.+ expires_at <").
		WithArgs(domain.OrderStatusCreatingWallet, domain.OrderStatusAwaitingPayment, now).
		WillReturnRows(orderRow(o))

	due, err := repo.ListDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, o.ID, due[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_MarkExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusExpired, id,
			domain.OrderStatusCreatingWallet, domain.OrderStatusAwaitingPayment).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	expired, err := repo.MarkExpired(context.Background(), tx, id)
	assert.NoError(t, err)
	assert.True(t, expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_MarkExpired_AlreadyResolved(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusExpired, id,
			domain.OrderStatusCreatingWallet, domain.OrderStatusAwaitingPayment).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	expired, err := repo.MarkExpired(context.Background(), tx, id)
	assert.NoError(t, err)
	assert.False(t, expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}
