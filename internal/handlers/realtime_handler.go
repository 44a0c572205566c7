package handlers

import (
	"log/slog"

	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/realtime"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RealtimeHandler serves the live notification channel.
type RealtimeHandler struct {
	auth middleware.Authenticator
	hub  *realtime.Hub
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(auth middleware.Authenticator, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{auth: auth, hub: hub}
}

// RegisterRoutes mounts GET /ws. The caller is authenticated before the
// upgrade, so a bad credential gets a plain 401 and never joins a room.
func (h *RealtimeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws",
		middleware.AuthRequiredWithQuery(h.auth),
		h.HandleUpgrade,
		websocket.New(h.HandleConnection),
	)
}

// HandleUpgrade refuses plain HTTP requests.
func (h *RealtimeHandler) HandleUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// HandleConnection joins the connection to its rooms and forwards hub events
// until either side goes away.
func (h *RealtimeHandler) HandleConnection(conn *websocket.Conn) {
	id, ok := conn.Locals(middleware.IdentityKey).(models.Identity)
	if !ok {
		conn.Close()
		return
	}

	rooms := []string{realtime.UserRoom(id.UserID)}
	if id.IsAdmin() {
		rooms = append(rooms, realtime.AdminRoom)
	}
	sub := h.hub.Join(rooms...)
	defer h.hub.Leave(sub)
	slog.Debug("realtime client connected", "user_id", id.UserID, "rooms", rooms)

	// Inbound frames are ignored; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("realtime write failed", "user_id", id.UserID, "error", err)
				return
			}
		case <-closed:
			slog.Debug("realtime client disconnected", "user_id", id.UserID)
			return
		}
	}
}
