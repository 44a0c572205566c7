package handlers

import (
	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	service  *services.NotificationService
	validate *validator.Validate
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	routes := router.Group("/notifications")
	routes.Post("/", middleware.RequireCapability(models.CapBroadcast), h.HandleCreate)
	routes.Get("/", h.HandleList)
	routes.Patch("/:id/read", h.HandleMarkRead)
}

// HandleCreate sends a notification to one user.
func (h *NotificationHandler) HandleCreate(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var in services.CreateNotificationInput
	if err := parseBody(c, h.validate, &in); err != nil {
		return respondError(c, err)
	}

	n, err := h.service.Create(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Notification sent", n)
}

// HandleList returns the caller's notifications, newest first.
// ?unread=true limits the list to pending ones.
func (h *NotificationHandler) HandleList(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.service.List(c.UserContext(), id, c.QueryBool("unread", false))
	if err != nil {
		return respondError(c, err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return respond(c, fiber.StatusOK, "Notifications retrieved", list)
}

// HandleMarkRead marks one notification as read.
func (h *NotificationHandler) HandleMarkRead(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	n, err := h.service.MarkRead(c.UserContext(), id, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Notification marked as read", n)
}
