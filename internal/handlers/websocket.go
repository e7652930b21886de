package handlers

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/arnold/momentum-api/internal/logger"
	"github.com/arnold/momentum-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Event types sent over WebSocket
const (
	EventHabitUpdated    = "habit_updated"
	EventHabitDeleted    = "habit_deleted"
	EventHabitsRefreshed = "habits_refreshed"
	EventGoalUpdated     = "goal_updated"
	EventGoalDeleted     = "goal_deleted"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// messageWriter is the part of a websocket connection the hub writes to.
type messageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// connection wraps a websocket connection with its user ID. Writes are
// serialized because broadcasts come from request handlers and the sweep.
type connection struct {
	mu     sync.Mutex
	conn   messageWriter
	userID uuid.UUID
}

func (c *connection) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub manages the open WebSocket connections of each user.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*connection]bool // userID -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uuid.UUID]map[*connection]bool)}
}

// register adds a connection to a user's room
func (h *Hub) register(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[conn.userID] == nil {
		h.rooms[conn.userID] = make(map[*connection]bool)
	}
	h.rooms[conn.userID][conn] = true
	logger.Debug("ws register", "user", conn.userID, "connections", len(h.rooms[conn.userID]))
}

// unregister removes a connection from a user's room
func (h *Hub) unregister(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[conn.userID]; ok {
		delete(conns, conn)
		logger.Debug("ws unregister", "user", conn.userID, "remaining", len(conns))
		if len(conns) == 0 {
			delete(h.rooms, conn.userID)
		}
	}
}

// Broadcast sends an event to every open connection of a user.
func (h *Hub) Broadcast(userID uuid.UUID, event WSEvent) {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.rooms[userID]))
	for c := range h.rooms[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		logger.Error("ws broadcast marshal", "type", event.Type, "err", err)
		return
	}

	logger.Debug("ws broadcast", "type", event.Type, "user", userID, "connections", len(conns))
	for _, c := range conns {
		if err := c.write(msg); err != nil {
			logger.Warn("ws write", "user", userID, "err", err)
		}
	}
}

// HabitsRefreshed tells a user's clients that the vitality sweep changed
// their habits and they should refetch.
func (h *Hub) HabitsRefreshed(userID uuid.UUID) {
	h.Broadcast(userID, WSEvent{Type: EventHabitsRefreshed})
}

// Connections reports how many connections a user has open.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// WebSocketUpgrade is the middleware that checks the upgrade request and validates JWT
func (a *API) WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(a.JWTSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// HandleWebSocket keeps a user's connection registered until it closes.
func (a *API) HandleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, userID: userID}
	a.Hub.register(conn)
	defer a.Hub.unregister(conn)

	// Keep connection alive: read messages (client sends pings/keepalives)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
