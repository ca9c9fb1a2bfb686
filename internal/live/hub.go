// Package live fans new GPS fixes out to whichever viewer channels are
// currently attached. Delivery is best-effort and at-most-once: a channel
// that fails a send is evicted, never retried. Pollers recover through the
// HTTP latest/trail endpoints.
package live

import (
	"log"
	"sync"
	"time"
)

// Update is the payload pushed to viewers when an owner submits a fix.
type Update struct {
	UserID     string    `json:"user_id"`
	ActivityID uint      `json:"activity_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Envelope is the wire message wrapping hub traffic.
type Envelope struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Viewer is one attached channel. Send must be safe for concurrent use;
// returning an error marks the channel dead and gets it evicted.
type Viewer interface {
	Send(msg Envelope) error
}

// Hub is the connection registry: owner id -> connection id -> viewer.
// It is an injectable component with an explicit lifecycle rather than
// process-wide mutable state.
type Hub struct {
	mu      sync.RWMutex
	viewers map[string]map[string]Viewer
	closed  bool
}

func NewHub() *Hub {
	return &Hub{viewers: make(map[string]map[string]Viewer)}
}

// Start marks the hub ready. Kept separate from NewHub so main owns the
// lifecycle explicitly.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = false
}

// Stop detaches every viewer and rejects further attachments.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.viewers = make(map[string]map[string]Viewer)
}

// Attach registers a viewer channel on an owner's stream. Attaching the same
// (owner, conn) pair twice replaces the previous channel.
func (h *Hub) Attach(ownerID, connID string, v Viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	conns, ok := h.viewers[ownerID]
	if !ok {
		conns = make(map[string]Viewer)
		h.viewers[ownerID] = conns
	}
	conns[connID] = v
}

// Detach removes one viewer channel from an owner's stream. Detaching a
// channel that is not attached is a no-op.
func (h *Hub) Detach(ownerID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(ownerID, connID)
}

// DetachConn removes a connection from every owner stream it is attached to.
// Called on socket teardown, which may race with eviction; both paths are
// idempotent.
func (h *Hub) DetachConn(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ownerID := range h.viewers {
		h.detachLocked(ownerID, connID)
	}
}

func (h *Hub) detachLocked(ownerID, connID string) {
	conns, ok := h.viewers[ownerID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(h.viewers, ownerID)
	}
}

// Broadcast pushes an update to every channel attached to the owner's
// stream. A channel whose Send fails is treated as disconnected and evicted.
// No cross-owner ordering is guaranteed; within one owner, callers invoke
// Broadcast in receipt order.
func (h *Hub) Broadcast(ownerID string, update Update) {
	msg := Envelope{
		Type:      "location_update",
		UserID:    ownerID,
		Data:      update,
		Timestamp: time.Now().UnixMilli(),
	}

	h.mu.RLock()
	conns := h.viewers[ownerID]
	targets := make(map[string]Viewer, len(conns))
	for id, v := range conns {
		targets[id] = v
	}
	h.mu.RUnlock()

	var dead []string
	for connID, v := range targets {
		if err := v.Send(msg); err != nil {
			log.Printf("live: dropping viewer %s of %s: %v", connID, ownerID, err)
			dead = append(dead, connID)
		}
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, connID := range dead {
			h.detachLocked(ownerID, connID)
		}
		h.mu.Unlock()
	}
}

// Stats describes the hub's current attachment state.
type Stats struct {
	TotalConnections int      `json:"total_connections"`
	TotalUsers       int      `json:"total_users"`
	UsersOnline      []string `json:"users_online"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Stats{UsersOnline: make([]string, 0, len(h.viewers))}
	for ownerID, conns := range h.viewers {
		s.TotalConnections += len(conns)
		s.UsersOnline = append(s.UsersOnline, ownerID)
	}
	s.TotalUsers = len(h.viewers)
	return s
}
