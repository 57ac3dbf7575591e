// internal/websocket/hub.go
package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DirectFrame carries a payload destined for one user's connections only.
// Private message notifications travel this way so other viewers never see
// them on the wire.
type DirectFrame struct {
	TargetUserID uuid.UUID
	Payload      []byte
}

// Hub maintains the set of active clients. Feed snapshots are pushed per
// client by its refresh driver; the hub handles registration bookkeeping,
// whole-room broadcasts and direct frames.
type Hub struct {
	// Registered clients. Maps user ID to the set of that user's open
	// connections, so one user can have several tabs.
	Clients map[uuid.UUID]map[*Client]bool

	// Payloads pushed to every connected client.
	Broadcast chan []byte

	// Payloads pushed to one user's connections.
	SendDirect chan *DirectFrame

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		SendDirect: make(chan *DirectFrame),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[uuid.UUID]map[*Client]bool),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket hub started.")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; !ok {
				h.Clients[client.UserID] = make(map[*Client]bool)
			}
			h.Clients[client.UserID][client] = true
			log.Printf("WebSocket client registered for user %s. Connections for user: %d", client.UserID, len(h.Clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UserID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.Clients, client.UserID)
						log.Printf("WebSocket client unregistered. User %s has no more connections.", client.UserID)
					} else {
						log.Printf("WebSocket client unregistered for user %s. Remaining connections: %d", client.UserID, len(userClients))
					}
				}
			}
			h.mu.Unlock()

		case payload := <-h.Broadcast:
			h.mu.RLock()
			for _, userClients := range h.Clients {
				for client := range userClients {
					select {
					case client.Send <- payload:
					default:
						log.Printf("Broadcast send buffer full for client of user %s", client.UserID)
					}
				}
			}
			h.mu.RUnlock()

		case frame := <-h.SendDirect:
			h.mu.RLock()
			if userClients, ok := h.Clients[frame.TargetUserID]; ok {
				for client := range userClients {
					select {
					case client.Send <- frame.Payload:
					default:
						log.Printf("Send channel full for client of user %s. Frame dropped for this client.", client.UserID)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastFrame queues a payload for every connection. It gives up after a
// second rather than blocking the caller on a busy hub.
func (h *Hub) BroadcastFrame(payload []byte) {
	select {
	case h.Broadcast <- payload:
	case <-time.After(1 * time.Second):
		log.Println("Timeout queuing broadcast frame. Hub might be busy or blocked.")
	}
}

// SendDirectFrame queues a payload for one user's connections. It gives up
// after a second rather than blocking the caller on a busy hub.
func (h *Hub) SendDirectFrame(targetUserID uuid.UUID, payload []byte) {
	frame := &DirectFrame{
		TargetUserID: targetUserID,
		Payload:      payload,
	}
	select {
	case h.SendDirect <- frame:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing frame for user %s. Hub might be busy or blocked.", targetUserID)
	}
}
