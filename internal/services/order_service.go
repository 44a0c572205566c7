package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"mercado/internal/apperrors"
	"mercado/internal/metrics"
	"mercado/internal/models"
	"mercado/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// TransitionInput is a requested status change.
type TransitionInput struct {
	Status  string `json:"status" validate:"required"`
	Method  string `json:"method" validate:"omitempty,max=50"`
	Address string `json:"address" validate:"omitempty,max=255"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// OrderPage is a page of orders.
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// OrderService runs the order state machine and the cart to order conversion.
type OrderService struct {
	orders   repositories.OrderRepository
	tx       repositories.TxManager
	notifier Notifier
	events   EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders repositories.OrderRepository, tx repositories.TxManager, notifier Notifier, events EventPublisher) *OrderService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &OrderService{
		orders:   orders,
		tx:       tx,
		notifier: notifier,
		events:   events,
	}
}

// Create opens an empty pending order.
func (s *OrderService) Create(ctx context.Context, actor models.Identity, method string) (*models.Order, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, apperrors.Validation("invalid order", apperrors.FieldError{Field: "method", Message: "is required"})
	}

	order := &models.Order{
		UserID: actor.UserID,
		Status: models.StatusPending,
		Method: method,
		Total:  decimal.Zero,
		Lines:  []models.OrderLine{},
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.Internal(err)
	}
	metrics.OrdersCreated.WithLabelValues("direct").Inc()
	s.afterCreate(ctx, order)
	return order, nil
}

// CreateFromCart converts the caller's active cart into a pending order. The
// order, its line snapshots, the emptied cart lines and the retired cart are
// written in one transaction.
func (s *OrderService) CreateFromCart(ctx context.Context, actor models.Identity, method string) (*models.Order, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	var orderID string
	err := s.tx.WithinTx(ctx, func(st repositories.Stores) error {
		cart, err := st.Carts.FindActive(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrEmptyCart
			}
			return err
		}
		if len(cart.Lines) == 0 {
			return apperrors.ErrEmptyCart
		}

		order := &models.Order{
			UserID: actor.UserID,
			Status: models.StatusPending,
			Method: method,
			Total:  decimal.Zero,
		}
		for _, line := range cart.Lines {
			// Lines are priced at conversion time, not when they were added.
			product, err := st.Products.GetByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperrors.NotFound("product %s is no longer available", line.ProductID)
				}
				return err
			}
			subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			order.Lines = append(order.Lines, models.OrderLine{
				ProductID:   line.ProductID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   product.Price,
				Subtotal:    subtotal,
			})
			order.Total = order.Total.Add(subtotal)
		}

		if err := st.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := st.Carts.DeleteLines(ctx, cart.ID); err != nil {
			return err
		}
		// A concurrent conversion of the same cart loses here and rolls back.
		if err := st.Carts.Deactivate(ctx, cart.ID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrEmptyCart
			}
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Internal(fmt.Errorf("convert cart of user %s: %w", actor.UserID, err))
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	metrics.OrdersCreated.WithLabelValues("cart").Inc()
	s.afterCreate(ctx, order)
	return order, nil
}

func (s *OrderService) afterCreate(ctx context.Context, order *models.Order) {
	if s.notifier != nil {
		msg := fmt.Sprintf("New order %s placed for %s", order.ID, order.Total.StringFixed(2))
		if _, err := s.notifier.NotifyAdmins(ctx, models.NotificationNewOrder, msg, order.ID); err != nil {
			slog.ErrorContext(ctx, "failed to notify admins of new order", "order_id", order.ID, "error", err)
		}
	}
	publish(ctx, s.events, order.ID, OrderCreatedEvent{
		Type:       EventOrderCreated,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		Total:      order.Total,
		LineCount:  len(order.Lines),
		OccurredAt: order.CreatedAt,
	})
}

// Get returns an order to its owner or to an order manager.
func (s *OrderService) Get(ctx context.Context, actor models.Identity, id string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID && !actor.Can(models.CapManageOrders) {
		return nil, apperrors.Forbidden("not allowed to view order %s", id)
	}
	return order, nil
}

// List pages through active orders, newest first. Callers without
// manage_orders only ever see their own orders.
func (s *OrderService) List(ctx context.Context, actor models.Identity, filter models.OrderFilter) (*OrderPage, error) {
	if filter.Status != "" {
		if _, ok := models.ParseOrderStatus(string(filter.Status)); !ok {
			return nil, apperrors.Validation("invalid filter", apperrors.FieldError{Field: "status", Message: "unknown order status"})
		}
	}
	if !actor.Can(models.CapManageOrders) {
		filter.UserID = actor.UserID
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &OrderPage{
		Orders: orders,
		Pagination: Pagination{
			CurrentPage:  filter.Page,
			TotalPages:   int(math.Ceil(float64(total) / float64(filter.Limit))),
			TotalItems:   total,
			ItemsPerPage: filter.Limit,
		},
	}, nil
}

// Transition moves an order along the status table and notifies its owner.
func (s *OrderService) Transition(ctx context.Context, actor models.Identity, id string, in TransitionInput) (*models.Order, error) {
	to, ok := models.ParseOrderStatus(in.Status)
	if !ok {
		return nil, apperrors.Validation("invalid status", apperrors.FieldError{Field: "status", Message: fmt.Sprintf("unknown order status %q", in.Status)})
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Can(models.CapManageOrders) {
		if order.UserID != actor.UserID {
			return nil, apperrors.Forbidden("not allowed to change order %s", id)
		}
		if to != models.StatusCancelled {
			return nil, apperrors.Forbidden("only cancellation is allowed on your own orders")
		}
	}

	from := order.Status
	if !from.CanTransitionTo(to) {
		return nil, apperrors.InvalidTransition(string(from), string(to))
	}

	meta := repositories.OrderUpdate{Method: strings.TrimSpace(in.Method), Address: strings.TrimSpace(in.Address)}
	if err := s.orders.UpdateStatus(ctx, id, from, to, meta); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Someone else moved or deleted the order since it was read.
			return nil, apperrors.InvalidTransition(string(from), string(to))
		}
		return nil, apperrors.Internal(err)
	}
	metrics.OrderTransitions.WithLabelValues(string(from), string(to)).Inc()

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("Your order %s is now %s", id, to)
		if _, err := s.notifier.NotifyUser(ctx, updated.UserID, models.NotificationOrderStatus, msg, id); err != nil {
			slog.ErrorContext(ctx, "failed to notify order owner", "order_id", id, "error", err)
		}
	}
	publish(ctx, s.events, id, OrderStatusChangedEvent{
		Type:       EventOrderStatusChanged,
		OrderID:    id,
		UserID:     updated.UserID,
		From:       string(from),
		To:         string(to),
		OccurredAt: time.Now(),
	})
	return updated, nil
}

// SoftDelete hides an order from every listing whatever its status.
func (s *OrderService) SoftDelete(ctx context.Context, actor models.Identity, id string) error {
	if !actor.Can(models.CapManageOrders) {
		return apperrors.Forbidden("not allowed to delete orders")
	}
	if err := s.orders.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("order %s not found", id)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *OrderService) load(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("order %s not found", id)
		}
		return nil, apperrors.Internal(err)
	}
	return order, nil
}
