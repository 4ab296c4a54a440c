package service

import (
	"context"
	"fmt"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartServiceImpl implements ports.CartService.
type CartServiceImpl struct {
	cartRepo    ports.CartRepository
	productRepo ports.ProductRepository
	log         zerolog.Logger
}

// NewCartService creates a new CartServiceImpl.
func NewCartService(cartRepo ports.CartRepository, productRepo ports.ProductRepository, log zerolog.Logger) *CartServiceImpl {
	return &CartServiceImpl{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		log:         log,
	}
}

// Create opens an empty anonymous cart.
func (s *CartServiceImpl) Create(ctx context.Context) (*domain.Cart, error) {
	cart := &domain.Cart{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
	}
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persist cart: %w", err))
	}
	return cart, nil
}

// Get returns the cart with its lines and current product pricing.
func (s *CartServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	cart, err := s.cartRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load cart: %w", err))
	}
	if cart == nil {
		return nil, apperror.ErrNotFound("cart")
	}
	return cart, nil
}

// AddItem adds quantity of a product to the cart, merging into an existing
// line.
func (s *CartServiceImpl) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, apperror.Validation("quantity must be positive")
	}
	if _, err := s.Get(ctx, cartID); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load product: %w", err))
	}
	if product == nil {
		return nil, apperror.ErrNotFound("product")
	}

	if err := s.cartRepo.UpsertItem(ctx, cartID, productID, quantity); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("add cart item: %w", err))
	}
	return s.Get(ctx, cartID)
}

// RemoveItem drops a product line from the cart.
func (s *CartServiceImpl) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (*domain.Cart, error) {
	if _, err := s.Get(ctx, cartID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.RemoveItem(ctx, cartID, productID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("remove cart item: %w", err))
	}
	return s.Get(ctx, cartID)
}

// Clear empties the cart.
func (s *CartServiceImpl) Clear(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.Get(ctx, cartID); err != nil {
		return err
	}
	if err := s.cartRepo.Clear(ctx, cartID); err != nil {
		return apperror.InternalError(fmt.Errorf("clear cart: %w", err))
	}
	return nil
}
