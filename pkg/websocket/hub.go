package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"quizmaster/pkg/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Message represents the standard message format exchanged over WebSocket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Message types owned by the hub itself.
const (
	TypeSnapshot = "snapshot"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeError    = "error"
)

// SnapshotFunc returns the current state of the game behind code.
type SnapshotFunc func(ctx context.Context, code string) (interface{}, error)

// Hub fans messages out to the clients of each game room.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	snapshot   SnapshotFunc
	upgrader   websocket.Upgrader
}

type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	code string
}

func NewHub(snapshot SnapshotFunc, allowedOrigins []string) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		snapshot:   snapshot,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// originChecker allows requests without an Origin header, and any origin
// when the list contains "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
			go h.sendSnapshot(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-ctx.Done():
			h.mu.Lock()
			for code, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
				delete(h.rooms, code)
			}
			h.mu.Unlock()
			slog.Info("websocket hub stopped")
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.code]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[client.code] = room
	}
	room[client] = true
	slog.Debug("websocket client joined room", "client", client.id, "code", client.code, "clients", len(room))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.code]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.code)
	}
	slog.Debug("websocket client left room", "client", client.id, "code", client.code, "clients", len(room))
}

// RoomSize is the number of clients connected to code.
func (h *Hub) RoomSize(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// Broadcast sends an event to every client in the room of code.
func (h *Hub) Broadcast(code, event string, payload interface{}) {
	data, err := encode(event, payload)
	if err != nil {
		slog.Error("error marshaling websocket message", "event", event, "error", err)
		return
	}
	h.BroadcastToRoom(code, data)
}

// BroadcastToRoom queues an encoded message for every client in the room.
// Clients whose buffer is full are dropped.
func (h *Hub) BroadcastToRoom(code string, message []byte) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.rooms[code] {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		slog.Warn("websocket send buffer full, dropping client", "client", client.id, "code", code)
		go h.leave(client)
	}
}

// sendTo queues message for one client if it is still registered.
func (h *Hub) sendTo(client *Client, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.rooms[client.code][client] {
		return
	}
	select {
	case client.send <- message:
	default:
	}
}

func (h *Hub) sendSnapshot(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	var msg Message
	snap, err := h.snapshot(ctx, client.code)
	if err != nil {
		slog.Warn("websocket snapshot failed", "code", client.code, "error", err)
		msg = Message{Type: TypeError, Data: map[string]string{"message": "Game state is unavailable"}}
	} else {
		msg = Message{Type: TypeSnapshot, Data: snap}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("error marshaling snapshot", "code", client.code, "error", err)
		return
	}
	h.sendTo(client, data)
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// HandleWebSocket upgrades the request and subscribes the connection to the
// room of the game code in the path.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["code"]))
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "validation_error", "Missing game code")
		return
	}

	// Resolve the game before upgrading so unknown codes get a plain 404.
	if _, err := h.snapshot(r.Context(), code); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not_found", "Game not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "code", code, "error", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		code: code,
	}
	if !h.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump handles client requests until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket closed unexpectedly", "client", c.id, "error", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		slog.Debug("ignoring malformed websocket message", "client", c.id, "error", err)
		return
	}

	switch msg.Type {
	case TypePing:
		if data, err := encode(TypePong, nil); err == nil {
			c.hub.sendTo(c, data)
		}
	case TypeSnapshot:
		go c.hub.sendSnapshot(c)
	default:
		slog.Debug("ignoring websocket message", "client", c.id, "type", msg.Type)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("websocket write failed", "client", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: event, Data: payload})
}
