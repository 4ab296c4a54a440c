package postgres

import (
	"context"
	"testing"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestWallet() *domain.Wallet {
	return &domain.Wallet{
		ID:                uuid.New(),
		ExternalAccountID: "acct-" + uuid.NewString()[:8],
		Address:           strPtr("0xdeadbeef"),
		Chain:             strPtr("POLYGON"),
		Status:            domain.WalletStatusAvailable,
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
}

func walletColumnNames() []string {
	return []string{"id", "external_account_id", "address", "chain", "status", "assigned_order_id", "created_at"}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows(walletColumnNames()).AddRow(
		w.ID, w.ExternalAccountID, w.Address, w.Chain,
		w.Status, w.AssignedOrderID, w.CreatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.ExternalAccountID, w.Address, w.Chain,
			w.Status, w.AssignedOrderID, w.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_ClaimAvailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()
	w.Status = domain.WalletStatusAssigned

	mock.ExpectQuery("UPDATE wallets SET status .+ FOR UPDATE SKIP LOCKED").
		WithArgs(domain.WalletStatusAssigned, domain.WalletStatusAvailable).
		WillReturnRows(walletRow(w))

	result, err := repo.ClaimAvailable(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.Equal(t, domain.WalletStatusAssigned, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_ClaimAvailable_EmptyPool(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	// No AVAILABLE row to pick: RETURNING yields nothing.
	mock.ExpectQuery("UPDATE wallets SET status .+ FOR UPDATE SKIP LOCKED").
		WithArgs(domain.WalletStatusAssigned, domain.WalletStatusAvailable).
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))

	result, err := repo.ClaimAvailable(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result, "claim on an exhausted pool returns nil without error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByAccountID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE external_account_id").
		WithArgs(w.ExternalAccountID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByAccountID(context.Background(), w.ExternalAccountID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByAccountID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE external_account_id").
		WithArgs("acct-missing").
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))

	result, err := repo.GetByAccountID(context.Background(), "acct-missing")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByAccountIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE external_account_id .+ FOR UPDATE").
		WithArgs(w.ExternalAccountID).
		WillReturnRows(walletRow(w))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByAccountIDForUpdate(context.Background(), tx, w.ExternalAccountID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_AssignToOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET status .+ assigned_order_id").
		WithArgs(domain.WalletStatusAssigned, orderID, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.AssignToOrder(context.Background(), tx, walletID, orderID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Release_ClearsAssignment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET status .+ assigned_order_id = NULL").
		WithArgs(domain.WalletStatusAvailable, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Release(context.Background(), tx, walletID, domain.WalletStatusAvailable)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Release_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET status .+ assigned_order_id = NULL").
		WithArgs(domain.WalletStatusInitializing, walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Release(context.Background(), tx, walletID, domain.WalletStatusInitializing)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Activate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	walletID := uuid.New()

	mock.ExpectExec("UPDATE wallets SET status .+ address .+ chain").
		WithArgs(domain.WalletStatusAvailable, "0xfeed", "ETHEREUM", walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.Activate(context.Background(), walletID, "0xfeed", "ETHEREUM")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_CountByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM wallets WHERE status").
		WithArgs(domain.WalletStatusAvailable).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.CountByStatus(context.Background(), domain.WalletStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_ListByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w1 := newTestWallet()
	w2 := newTestWallet()
	w1.Status = domain.WalletStatusInitializing
	w2.Status = domain.WalletStatusInitializing

	rows := pgxmock.NewRows(walletColumnNames()).
		AddRow(w1.ID, w1.ExternalAccountID, w1.Address, w1.Chain, w1.Status, w1.AssignedOrderID, w1.CreatedAt).
		AddRow(w2.ID, w2.ExternalAccountID, w2.Address, w2.Chain, w2.Status, w2.AssignedOrderID, w2.CreatedAt)

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE status .+ ORDER BY created_at").
		WithArgs(domain.WalletStatusInitializing).
		WillReturnRows(rows)

	wallets, err := repo.ListByStatus(context.Background(), domain.WalletStatusInitializing)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, w1.ID, wallets[0].ID)
	assert.Equal(t, w2.ID, wallets[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
