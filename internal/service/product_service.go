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
	"github.com/shopspring/decimal"
)

// ProductServiceImpl implements ports.ProductService.
type ProductServiceImpl struct {
	productRepo ports.ProductRepository
	log         zerolog.Logger
}

// NewProductService creates a new ProductServiceImpl.
func NewProductService(productRepo ports.ProductRepository, log zerolog.Logger) *ProductServiceImpl {
	return &ProductServiceImpl{
		productRepo: productRepo,
		log:         log,
	}
}

// Create adds a product to the catalog.
func (s *ProductServiceImpl) Create(ctx context.Context, name, description string, price decimal.Decimal) (*domain.Product, error) {
	if name == "" {
		return nil, apperror.Validation("product name is required")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.Validation("product price must be positive")
	}

	product := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Price:       price,
		CreatedAt:   time.Now(),
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persist product: %w", err))
	}
	return product, nil
}

// Get returns a product by id.
func (s *ProductServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load product: %w", err))
	}
	if product == nil {
		return nil, apperror.ErrNotFound("product")
	}
	return product, nil
}

// List returns the full catalog.
func (s *ProductServiceImpl) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list products: %w", err))
	}
	return products, nil
}
