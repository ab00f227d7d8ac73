package events

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ledgergames/splitsecond/pkg/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans emitted result events out to websocket subscribers. Events
// are transient: a subscriber only sees events emitted while it is
// connected, and a subscriber that cannot keep up is dropped.
type Hub struct {
	lock        sync.Mutex
	subscribers map[*websocket.Conn]chan []byte
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*websocket.Conn]chan []byte),
	}
}

// HandleSubscribe upgrades the request to a websocket and streams
// events until the client disconnects.
func (h *Hub) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		return
	}
	log.Debug("New event subscriber from %s", conn.RemoteAddr().String())

	send := make(chan []byte, 64)
	h.lock.Lock()
	h.subscribers[conn] = send
	h.lock.Unlock()

	go h.writePump(conn, send)
	h.readPump(conn)
}

func (h *Hub) writePump(conn *websocket.Conn, send <-chan []byte) {
	for message := range send {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Debug("Failed to write to subscriber: %v", err)
			h.remove(conn)
			return
		}
	}
	// channel closed by remove
	_ = conn.Close()
}

// readPump discards incoming frames and detects disconnects.
func (h *Hub) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	send, ok := h.subscribers[conn]
	if ok {
		delete(h.subscribers, conn)
		close(send)
	}
	h.lock.Unlock()
	_ = conn.Close()
}

// Broadcast sends a message to every subscriber. Subscribers whose
// send buffers are full are dropped rather than blocking the caller.
func (h *Hub) Broadcast(message []byte) {
	h.lock.Lock()
	var slow []*websocket.Conn
	for conn, send := range h.subscribers {
		select {
		case send <- message:
		default:
			slow = append(slow, conn)
		}
	}
	h.lock.Unlock()

	for _, conn := range slow {
		log.Warn("Dropping slow event subscriber %s", conn.RemoteAddr().String())
		h.remove(conn)
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.subscribers)
}
