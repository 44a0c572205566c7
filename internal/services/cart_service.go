package services

import (
	"context"
	"errors"

	"mercado/internal/apperrors"
	"mercado/internal/metrics"
	"mercado/internal/models"
	"mercado/internal/repositories"

	"golang.org/x/sync/singleflight"
)

// CartService owns the active cart of each user.
type CartService struct {
	carts   repositories.CartRepository
	catalog CatalogReader
	group   singleflight.Group
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, catalog CatalogReader) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
	}
}

// GetOrCreateActive returns the user's active cart, creating it on first use.
// Concurrent calls for the same user share one lookup.
func (s *CartService) GetOrCreateActive(ctx context.Context, userID string) (*models.Cart, error) {
	// The flight outlives a cancelled first caller so the others still get a cart.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(userID, func() (any, error) {
		return s.getOrCreate(flightCtx, userID)
	})
	if err != nil {
		return nil, err
	}
	// Callers sharing a flight must not share the pointer.
	cart := *v.(*models.Cart)
	cart.Lines = append([]models.CartLine{}, cart.Lines...)
	return &cart, nil
}

func (s *CartService) getOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.FindActive(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	cart = &models.Cart{UserID: userID, Lines: []models.CartLine{}}
	err = s.carts.Create(ctx, cart)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return nil, apperrors.Internal(err)
	}

	// Another process created it first.
	cart, err = s.carts.FindActive(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return cart, nil
}

// AddLine adds quantity units of a product at its current catalog price.
func (s *CartService) AddLine(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("invalid quantity", apperrors.FieldError{Field: "quantity", Message: "must be at least 1"})
	}

	product, err := s.catalog.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.carts.UpsertLine(ctx, cart.ID, product.ID, quantity, product.Price); err != nil {
		return nil, apperrors.Internal(err)
	}
	metrics.CartLinesAdded.Inc()
	return s.reload(ctx, userID)
}

// DecrementLine removes one unit at the current catalog price; the line
// disappears when it reaches zero.
func (s *CartService) DecrementLine(ctx context.Context, userID, productID string) (*models.Cart, error) {
	cart, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := s.carts.DecrementLine(ctx, cart.ID, productID, product.Price); err != nil {
		return nil, lineError(err, productID)
	}
	return s.reload(ctx, userID)
}

// RemoveLine deletes the product's line whatever its quantity.
func (s *CartService) RemoveLine(ctx context.Context, userID, productID string) (*models.Cart, error) {
	cart, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteLine(ctx, cart.ID, productID); err != nil {
		return nil, lineError(err, productID)
	}
	return s.reload(ctx, userID)
}

// Clear deletes every line; the cart stays active.
func (s *CartService) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteLines(ctx, cart.ID); err != nil {
		return nil, apperrors.Internal(err)
	}
	cart.Lines = []models.CartLine{}
	return cart, nil
}

// Close retires the active cart without deleting its data.
func (s *CartService) Close(ctx context.Context, userID string) error {
	cart, err := s.active(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.carts.Deactivate(ctx, cart.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("no active cart")
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *CartService) active(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("no active cart")
		}
		return nil, apperrors.Internal(err)
	}
	return cart, nil
}

func (s *CartService) reload(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.FindActive(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return cart, nil
}

func lineError(err error, productID string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound("product %s is not in the cart", productID)
	}
	return apperrors.Internal(err)
}
