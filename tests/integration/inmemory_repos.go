package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Product Repo ---

type inMemoryProductRepo struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*domain.Product
}

func newInMemoryProductRepo() *inMemoryProductRepo {
	return &inMemoryProductRepo{products: make(map[uuid.UUID]*domain.Product)}
}

func (r *inMemoryProductRepo) Create(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *inMemoryProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func (r *inMemoryProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

// --- In-Memory Cart Repo ---

type inMemoryCartRepo struct {
	mu       sync.RWMutex
	carts    map[uuid.UUID]*domain.Cart
	products *inMemoryProductRepo
}

func newInMemoryCartRepo(products *inMemoryProductRepo) *inMemoryCartRepo {
	return &inMemoryCartRepo{
		carts:    make(map[uuid.UUID]*domain.Cart),
		products: products,
	}
}

func (r *inMemoryCartRepo) Create(ctx context.Context, c *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[c.ID] = c
	return nil
}

func (r *inMemoryCartRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[id]
	if !ok {
		return nil, nil
	}
	// Hydrate product refs the way the SQL join does.
	out := &domain.Cart{ID: c.ID, CreatedAt: c.CreatedAt}
	for _, it := range c.Items {
		p, _ := r.products.GetByID(ctx, it.ProductID)
		out.Items = append(out.Items, domain.CartItem{
			CartID:    it.CartID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Product:   p,
		})
	}
	return out, nil
}

func (r *inMemoryCartRepo) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[cartID]
	if !ok {
		return fmt.Errorf("cart not found")
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, domain.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity})
	return nil
}

func (r *inMemoryCartRepo) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[cartID]
	if !ok {
		return fmt.Errorf("cart not found")
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *inMemoryCartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[cartID]; ok {
		c.Items = nil
	}
	return nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByAccountID(ctx context.Context, accountID string) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.ExternalAccountID == accountID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByAccountIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Wallet, error) {
	return r.GetByAccountID(ctx, accountID)
}

func (r *inMemoryWalletRepo) ClaimAvailable(ctx context.Context) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.Status == domain.WalletStatusAvailable {
			w.Status = domain.WalletStatusAssigned
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) ListByStatus(ctx context.Context, status domain.WalletStatus) ([]domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Wallet
	for _, w := range r.wallets {
		if w.Status == status {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *inMemoryWalletRepo) CountByStatus(ctx context.Context, status domain.WalletStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, w := range r.wallets {
		if w.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *inMemoryWalletRepo) SetAssigned(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Status = domain.WalletStatusAssigned
	return nil
}

func (r *inMemoryWalletRepo) AssignToOrder(ctx context.Context, tx pgx.Tx, walletID, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.AssignedOrderID = &orderID
	return nil
}

func (r *inMemoryWalletRepo) Activate(ctx context.Context, id uuid.UUID, address, chain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Address = &address
	w.Chain = &chain
	w.Status = domain.WalletStatusAvailable
	return nil
}

func (r *inMemoryWalletRepo) Release(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WalletStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.AssignedOrderID = nil
	w.Status = status
	return nil
}

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *inMemoryOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *inMemoryOrderRepo) GetAwaitingByAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.Status == domain.OrderStatusAwaitingPayment && o.ExternalAccountID != nil && *o.ExternalAccountID == accountID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryOrderRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, txHash string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order not found")
	}
	o.Status = domain.OrderStatusPaid
	o.TxHash = &txHash
	o.PaidAt = &paidAt
	return nil
}

func (r *inMemoryOrderRepo) PromoteToAwaitingPayment(ctx context.Context, id uuid.UUID, address, chain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order not found")
	}
	// Forward-only, like the SQL status guard.
	if o.Status != domain.OrderStatusCreatingWallet {
		return nil
	}
	o.Status = domain.OrderStatusAwaitingPayment
	o.Address = &address
	o.Chain = &chain
	return nil
}

func (r *inMemoryOrderRepo) ListDue(ctx context.Context, now time.Time) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Order
	for _, o := range r.orders {
		if (o.Status == domain.OrderStatusCreatingWallet || o.Status == domain.OrderStatusAwaitingPayment) && o.ExpiresAt.Before(now) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *inMemoryOrderRepo) MarkExpired(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order not found")
	}
	// Forward-only, like the SQL status guard.
	if o.Status != domain.OrderStatusCreatingWallet && o.Status != domain.OrderStatusAwaitingPayment {
		return false, nil
	}
	o.Status = domain.OrderStatusExpired
	return true, nil
}

// --- In-Memory Payout Repo ---

type inMemoryPayoutRepo struct {
	mu      sync.RWMutex
	payouts map[uuid.UUID]*domain.Payout
}

func newInMemoryPayoutRepo() *inMemoryPayoutRepo {
	return &inMemoryPayoutRepo{payouts: make(map[uuid.UUID]*domain.Payout)}
}

func (r *inMemoryPayoutRepo) Create(ctx context.Context, p *domain.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payouts[p.ID] = &cp
	return nil
}

func (r *inMemoryPayoutRepo) GetByRequestID(ctx context.Context, requestID string) (*domain.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payouts {
		if p.PayoutRequestID == requestID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryPayoutRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payouts {
		if p.OrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryPayoutRepo) RecordExecution(ctx context.Context, id uuid.UUID, payoutID string, amountTarget, rate *decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return fmt.Errorf("payout not found")
	}
	p.PayoutID = &payoutID
	p.AmountTarget = amountTarget
	p.Rate = rate
	return nil
}

func (r *inMemoryPayoutRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayoutStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return fmt.Errorf("payout not found")
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryPayoutRepo) BackfillRate(ctx context.Context, id uuid.UUID, amountTarget, rate decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return fmt.Errorf("payout not found")
	}
	p.AmountTarget = &amountTarget
	p.Rate = &rate
	return nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
