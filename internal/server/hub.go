package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSPath is where browsers subscribe to index notifications.
const WSPath = "/_mbr/ws"

// Event types pushed to websocket clients.
const (
	EventIndexRefreshed = "index-refreshed"
	EventIndexFailed    = "index-failed"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is the outgoing websocket message format.
type Event struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`
	Documents  int    `json:"documents,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Hub fans index events out to every connected browser.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
	last    *Event
}

// NewHub returns a hub with no clients.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan Event)}
}

// Broadcast queues ev for every client. A client whose queue is full misses
// the event; the next one carries a newer generation anyway.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &ev
	for _, ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		close(ch)
		delete(h.clients, conn)
	}
}

func (h *Hub) register(conn *websocket.Conn) chan Event {
	ch := make(chan Event, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = ch
	// A client that connects between refreshes learns the current generation.
	if h.last != nil {
		ch <- *h.last
	}
	return ch
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	events := h.register(conn)
	defer h.unregister(conn)

	go func() {
		for ev := range events {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("server: websocket write: %v", err)
				conn.Close()
				return
			}
		}
		// Hub closed; tell the browser.
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
	}()

	// Clients never send anything meaningful; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}
	}
}
