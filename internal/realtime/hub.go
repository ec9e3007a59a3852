package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/darren/kanbo-api/internal/middleware"
)

// Event names sent over WebSocket
const (
	EventMembershipCreate   = "projectMembershipCreate"
	EventMembershipUpdate   = "projectMembershipUpdate"
	EventMembershipDelete   = "projectMembershipDelete"
	EventOwnershipTransfer  = "projectOwnershipTransfer"
	EventBoardCreate        = "boardCreate"
)

// Event is the JSON message sent to connected clients. Item carries the
// mutated record, Included the denormalized snapshots that travel with it.
type Event struct {
	Type     string                 `json:"type"`
	Item     interface{}            `json:"item,omitempty"`
	Included map[string]interface{} `json:"included,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// connection wraps a websocket connection with its user ID
type connection struct {
	conn   *websocket.Conn
	userID uuid.UUID
}

// Hub manages WebSocket connections per user channel
type Hub struct {
	mu       sync.RWMutex
	channels map[uuid.UUID]map[*connection]bool // userID -> set of connections
}

// Global hub instance
var WS = &Hub{
	channels: make(map[uuid.UUID]map[*connection]bool),
}

// Channel returns the logical channel name for a user.
func Channel(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// register adds a connection to its user channel
func (h *Hub) register(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[conn.userID] == nil {
		h.channels[conn.userID] = make(map[*connection]bool)
	}
	h.channels[conn.userID][conn] = true
	log.Printf("WS register: %s (connections: %d)", Channel(conn.userID), len(h.channels[conn.userID]))
}

// unregister removes a connection from its user channel
func (h *Hub) unregister(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.channels[conn.userID]; ok {
		delete(conns, conn)
		log.Printf("WS unregister: %s (remaining: %d)", Channel(conn.userID), len(conns))
		if len(conns) == 0 {
			delete(h.channels, conn.userID)
		}
	}
}

// Broadcast sends an event to every connection on a user channel. Delivery is
// fire-and-forget: write errors are logged and never surfaced to the caller.
func (h *Hub) Broadcast(userID uuid.UUID, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.channels[userID]
	if !ok {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS broadcast marshal error: %v", err)
		return
	}
	log.Printf("WS broadcast: %s to %s (%d connection(s))", event.Type, Channel(userID), len(conns))

	for c := range conns {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("WS write error: %v", err)
		}
	}
}

// Broadcast sends an event to a user channel via the global hub.
func Broadcast(userID uuid.UUID, event Event) {
	WS.Broadcast(userID, event)
}

// Upgrade is the middleware that checks the upgrade request and validates JWT
func Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// Handle keeps a client connection subscribed to its own user channel.
func Handle(c *websocket.Conn) {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, userID: userID}
	WS.register(conn)
	defer WS.unregister(conn)

	// Keep connection alive — read messages (client sends pings/keepalives)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
