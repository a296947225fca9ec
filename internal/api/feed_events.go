package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/moodgraph/backend/internal/middleware"
	"github.com/moodgraph/backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients connect from app schemes, not origins
	},
}

// Event is the wire shape of a pushed feed event.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID
}

// FeedEventsHub pushes feed.updated and follow.accepted events to connected
// clients. Delivery is best-effort: a slow consumer's events are dropped,
// and a user with no connected client receives nothing.
type FeedEventsHub struct {
	register    chan *client
	unregister  chan *client
	done        chan struct{}
	userClients map[uuid.UUID]map[*client]bool
	mu          sync.RWMutex
	logger      *zap.Logger
}

func NewFeedEventsHub(logger *zap.Logger) *FeedEventsHub {
	return &FeedEventsHub{
		register:    make(chan *client),
		unregister:  make(chan *client),
		done:        make(chan struct{}),
		userClients: make(map[uuid.UUID]map[*client]bool),
		logger:      logger,
	}
}

// Run processes client registration until ctx is done. Call on its own
// goroutine.
func (h *FeedEventsHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.userClients[c.userID]; !ok {
				h.userClients[c.userID] = make(map[*client]bool)
			}
			h.userClients[c.userID][c] = true
			h.mu.Unlock()
			h.logger.Debug("feed client registered", zap.String("user_id", c.userID.String()))

		case c := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.userClients[c.userID]; ok {
				if _, ok := clients[c]; ok {
					delete(clients, c)
					if len(clients) == 0 {
						delete(h.userClients, c.userID)
					}
					close(c.send)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("feed client unregistered", zap.String("user_id", c.userID.String()))
		}
	}
}

// add hands a client to Run. It reports failure instead of blocking once
// the hub has shut down.
func (h *FeedEventsHub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *FeedEventsHub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *FeedEventsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.userClients {
		for c := range clients {
			close(c.send)
		}
		delete(h.userClients, userID)
	}
}

// PublishToUser sends an event to all of a user's connected clients. It
// never blocks; events to full buffers are dropped.
func (h *FeedEventsHub) PublishToUser(userID uuid.UUID, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userClients[userID]
	if !ok {
		return
	}

	msg, err := json.Marshal(Event{Type: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal feed event", zap.Error(err))
		return
	}

	for c := range clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ConnectedUsers returns how many distinct users have a live client.
func (h *FeedEventsHub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients)
}

// HandleWebSocket upgrades GET /ws to a push connection.
func (h *FeedEventsHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}

	if !h.add(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

func (c *client) readPump(h *FeedEventsHub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	// Server-to-client push only; reads exist to notice the close.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
