package services

import (
	"context"
	"errors"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/repositories"
)

// CatalogReader is the read-only product lookup used by the cart.
type CatalogReader interface {
	FindProduct(ctx context.Context, id string) (*models.Product, error)
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all active products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return products, nil
}

// FindProduct retrieves a single active product by its ID.
func (s *ProductService) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("product %s not found", id)
		}
		return nil, apperrors.Internal(err)
	}
	return product, nil
}

// CreateProduct adds a product to the catalog. Used for seeding.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Price.IsNegative() {
		return apperrors.Validation("invalid product", apperrors.FieldError{Field: "price", Message: "must not be negative"})
	}
	product.Active = true
	if err := s.repo.Create(ctx, product); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// UpdateProduct replaces a product's catalog data.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("product %s not found", product.ID)
		}
		return apperrors.Internal(err)
	}
	return nil
}
