package handlers

import (
	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders", middleware.RequireCapability(models.CapShop))
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Post("/from-cart", h.HandleCreateFromCart)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
	orderRoutes.Delete("/:id", middleware.RequireCapability(models.CapManageOrders), h.HandleDeleteOrder)
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Method string `json:"method" validate:"required,max=50"`
}

// FromCartRequest is the body of POST /orders/from-cart.
type FromCartRequest struct {
	Method string `json:"method" validate:"omitempty,max=50"`
}

// HandleGetOrders lists orders. Order managers see every order.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	filter := models.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		UserID: c.Query("userId"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}

	page, err := h.service.List(c.UserContext(), id, filter)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Orders retrieved", page)
}

// HandleGetOrderByID retrieves a single order with its lines.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.service.Get(c.UserContext(), id, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order retrieved", order)
}

// HandleCreateOrder creates an empty pending order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req CreateOrderRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	order, err := h.service.Create(c.UserContext(), id, req.Method)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Order created", order)
}

// HandleCreateFromCart converts the caller's cart into an order.
func (h *OrderHandler) HandleCreateFromCart(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req FromCartRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	order, err := h.service.CreateFromCart(c.UserContext(), id, req.Method)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Order created from cart", order)
}

// HandleUpdateOrderStatus applies a status transition.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req services.TransitionInput
	if err := parseBody(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	order, err := h.service.Transition(c.UserContext(), id, c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order status updated", order)
}

// HandleDeleteOrder soft deletes an order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.SoftDelete(c.UserContext(), id, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order deleted", nil)
}
