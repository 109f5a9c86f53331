package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	OwnerEmail() string
	Send(data []byte) error
	Close() error
}

// Hub fans events out to every connection an owner has open.
// It is safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	owners map[string]map[string]ClientInterface
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		owners: make(map[string]map[string]ClientInterface),
	}
}

// Register adds a client under its owner
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	owner := client.OwnerEmail()
	if h.owners[owner] == nil {
		h.owners[owner] = make(map[string]ClientInterface)
	}
	h.owners[owner][client.ID()] = client

	log.Debug().
		Str("owner", owner).
		Str("client_id", client.ID()).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub. It reports whether the client was registered.
func (h *Hub) Unregister(client ClientInterface) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(client)
}

func (h *Hub) removeLocked(client ClientInterface) bool {
	owner := client.OwnerEmail()
	clients, ok := h.owners[owner]
	if !ok {
		return false
	}
	if _, exists := clients[client.ID()]; !exists {
		return false
	}
	delete(clients, client.ID())
	if len(clients) == 0 {
		delete(h.owners, owner)
	}

	log.Debug().
		Str("owner", owner).
		Str("client_id", client.ID()).
		Msg("WebSocket client unregistered")
	return true
}

// Broadcast sends an event to all clients of an owner.
// A client whose buffer is full or which is closed is evicted and closed.
func (h *Hub) Broadcast(ownerEmail string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("owner", ownerEmail).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	targets := make([]ClientInterface, 0, len(h.owners[ownerEmail]))
	for _, c := range h.owners[ownerEmail] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	var stale []ClientInterface
	for _, c := range targets {
		if err := c.Send(data); err != nil {
			log.Warn().
				Err(err).
				Str("owner", ownerEmail).
				Str("client_id", c.ID()).
				Msg("Dropping WebSocket client")
			stale = append(stale, c)
		}
	}

	if len(stale) > 0 {
		h.mu.Lock()
		for _, c := range stale {
			h.removeLocked(c)
		}
		h.mu.Unlock()
		for _, c := range stale {
			_ = c.Close()
		}
	}

	log.Debug().
		Str("owner", ownerEmail).
		Str("event_type", event.Type).
		Int("delivered", len(targets)-len(stale)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients connected for an owner
func (h *Hub) ClientCount(ownerEmail string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.owners[ownerEmail])
}

// TotalClientCount returns the number of connected clients across all owners
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.owners {
		total += len(clients)
	}
	return total
}

// CloseAll disconnects every client. Used during server shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := make([]ClientInterface, 0)
	for _, clients := range h.owners {
		for _, c := range clients {
			all = append(all, c)
		}
	}
	h.owners = make(map[string]map[string]ClientInterface)
	h.mu.Unlock()

	for _, c := range all {
		_ = c.Close()
	}
	log.Info().Int("clients", len(all)).Msg("Closed all WebSocket clients")
}
