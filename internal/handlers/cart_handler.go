package handlers

import (
	"mercado/internal/apperrors"
	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CartHandler handles HTTP requests on the caller's active cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the cart routes. Every route needs the shop capability.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart", middleware.RequireCapability(models.CapShop))
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:productId/decrement", h.HandleDecrementItem)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
	cartRoutes.Post("/clear", h.HandleClear)
	cartRoutes.Post("/close", h.HandleClose)
}

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,gte=1"`
}

// CartView is the cart as returned to clients.
type CartView struct {
	ID     string            `json:"id"`
	UserID string            `json:"userId"`
	Active bool              `json:"active"`
	Lines  []models.CartLine `json:"lines"`
	Total  decimal.Decimal   `json:"total"`
}

func newCartView(cart *models.Cart) CartView {
	lines := cart.Lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	return CartView{
		ID:     cart.ID,
		UserID: cart.UserID,
		Active: cart.Active,
		Lines:  lines,
		Total:  cart.Total(),
	}
}

func identity(c *fiber.Ctx) (models.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return models.Identity{}, apperrors.ErrUnauthorized
	}
	return id, nil
}

// HandleGetCart returns the active cart, creating it when absent.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	cart, err := h.service.GetOrCreateActive(c.UserContext(), id.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Cart retrieved", newCartView(cart))
}

// HandleAddItem adds a product to the cart; quantity defaults to 1.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req AddItemRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.service.AddLine(c.UserContext(), id.UserID, req.ProductID, quantity)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product added to cart", newCartView(cart))
}

// HandleDecrementItem lowers a line's quantity by one.
func (h *CartHandler) HandleDecrementItem(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	cart, err := h.service.DecrementLine(c.UserContext(), id.UserID, c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product quantity decreased", newCartView(cart))
}

// HandleRemoveItem deletes a line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	cart, err := h.service.RemoveLine(c.UserContext(), id.UserID, c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product removed from cart", newCartView(cart))
}

// HandleClear empties the cart.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	cart, err := h.service.Clear(c.UserContext(), id.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Cart cleared", newCartView(cart))
}

// HandleClose retires the cart.
func (h *CartHandler) HandleClose(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Close(c.UserContext(), id.UserID); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Cart closed", nil)
}
