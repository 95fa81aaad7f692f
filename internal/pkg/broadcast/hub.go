package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Event names pushed to connected clients.
const (
	EventNewReport     = "new-report"
	EventReportUpdated = "report-updated"
	EventNewComment    = "new-comment"
)

// Message is the wire frame sent to every subscriber.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub fans broadcast events out to all connected websocket clients.
// Delivery is best-effort: publishing never blocks, and clients whose
// send buffer is full are dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	send chan []byte
}

const sendBuffer = 16

// NewHub creates an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

var defaultHub = NewHub()

// Default returns the process-wide hub used by the HTTP handlers.
func Default() *Hub {
	return defaultHub
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish marshals the event and queues it to every subscriber without
// blocking. Subscribers that cannot keep up lose the message.
func (h *Hub) Publish(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log.Printf("broadcast: failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- payload:
		default:
			// Slow consumer; skip rather than block the publisher.
		}
	}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
}

// Handler returns the websocket handler that subscribes a connection to
// the hub until it disconnects. Subscribers may be anonymous.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		cl := &client{send: make(chan []byte, sendBuffer)}
		h.register(cl)
		defer func() {
			h.unregister(cl)
			conn.Close()
		}()

		// Drain incoming frames so close/ping control messages are
		// processed; clients never send application data.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.unregister(cl)
					return
				}
			}
		}()

		for payload := range cl.send {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
