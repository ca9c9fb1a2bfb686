package live

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/SalamaSafe/SS-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The connection itself is gated on a session cookie or sharing token
	// before the upgrade, so any origin may attempt one.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Authorizer validates that a token grants read access to an owner's stream.
type Authorizer interface {
	Authorize(ownerID, token string) error
}

// SessionFetcher resolves a session cookie to its owner, mirroring the HTTP
// session middleware.
type SessionFetcher interface {
	FindSessionByID(id string) (utils.SessionData, error)
}

// wsViewer adapts a websocket connection to the Viewer interface.
// gorilla connections allow one concurrent writer, hence the mutex.
type wsViewer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (v *wsViewer) Send(msg Envelope) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return v.conn.WriteJSON(msg)
}

// clientMessage is what viewers send over the socket.
type clientMessage struct {
	Type          string          `json:"type"`
	TrackedUserID string          `json:"tracked_user_id,omitempty"`
	Token         string          `json:"token,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// trackedSessions records which owner streams this connection follows via a
// sharing token, so the grant can be re-checked while the socket lives.
// Guarded because the heartbeat goroutine reaps concurrently with the read
// loop.
type trackedSessions struct {
	mu     sync.Mutex
	tokens map[string]string // ownerID -> sharing token
}

func newTrackedSessions() *trackedSessions {
	return &trackedSessions{tokens: make(map[string]string)}
}

func (t *trackedSessions) add(ownerID, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[ownerID] = token
}

func (t *trackedSessions) remove(ownerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tokens, ownerID)
}

// reap re-validates every token-gated attachment and detaches the ones whose
// session has expired or been stopped. The viewer is told which streams it
// lost.
func (t *trackedSessions) reap(hub *Hub, auth Authorizer, connID string, v Viewer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ownerID, token := range t.tokens {
		if auth != nil && auth.Authorize(ownerID, token) == nil {
			continue
		}
		delete(t.tokens, ownerID)
		hub.Detach(ownerID, connID)
		v.Send(Envelope{Type: "tracking_stopped", UserID: ownerID, Timestamp: time.Now().UnixMilli()})
	}
}

// SocketHandler serves /ws/location/{user_id}. Connecting requires either a
// session cookie for that same user (the owner's own device) or a live
// sharing token for the stream. Owners may push location_update frames;
// start_tracking/stop_tracking manage additional token-gated attachments.
func SocketHandler(hub *Hub, auth Authorizer, sessions SessionFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		isOwner := false
		connectToken := r.URL.Query().Get("token")
		if connectToken != "" {
			if auth == nil || auth.Authorize(userID, connectToken) != nil {
				http.Error(w, "Not found or expired", http.StatusNotFound)
				return
			}
		} else {
			cookie, err := r.Cookie("session_id")
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			session, err := sessions.FindSessionByID(cookie.Value)
			if err != nil || session.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if session.UserID != userID {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			isOwner = true
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("live: upgrade failed for %s: %v", userID, err)
			return
		}

		connID := uuid.NewString()
		viewer := &wsViewer{conn: conn}
		tracked := newTrackedSessions()
		if !isOwner {
			// Token-gated from the start; subject to the same reaping as
			// start_tracking grants.
			tracked.add(userID, connectToken)
		}

		hub.Attach(userID, connID, viewer)
		viewer.Send(Envelope{
			Type:      "connection_established",
			UserID:    userID,
			Timestamp: time.Now().UnixMilli(),
		})

		// Heartbeat reaps dead connections and stale token grants.
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		stopPing := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					viewer.mu.Lock()
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					err := conn.WriteMessage(websocket.PingMessage, nil)
					viewer.mu.Unlock()
					if err != nil {
						return
					}
					tracked.reap(hub, auth, connID, viewer)
				case <-stopPing:
					return
				}
			}
		}()

		defer func() {
			close(stopPing)
			hub.DetachConn(connID)
			conn.Close()
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("live: socket error for %s:%s: %v", userID, connID, err)
				}
				return
			}

			var msg clientMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				viewer.Send(Envelope{Type: "error", Data: "invalid message", Timestamp: time.Now().UnixMilli()})
				continue
			}

			switch msg.Type {
			case "location_update":
				// Push-only update from the owner's device; persistence goes
				// through the HTTP submit endpoint. Token-gated viewers are
				// read-only.
				if !isOwner {
					viewer.Send(Envelope{Type: "error", Data: "read-only connection", Timestamp: time.Now().UnixMilli()})
					continue
				}
				var update Update
				if err := json.Unmarshal(msg.Data, &update); err != nil {
					viewer.Send(Envelope{Type: "error", Data: "invalid location data", Timestamp: time.Now().UnixMilli()})
					continue
				}
				update.UserID = userID
				if update.RecordedAt.IsZero() {
					update.RecordedAt = time.Now().UTC()
				}
				hub.Broadcast(userID, update)

			case "start_tracking":
				if msg.TrackedUserID == "" {
					continue
				}
				if msg.TrackedUserID != userID {
					if auth == nil || auth.Authorize(msg.TrackedUserID, msg.Token) != nil {
						viewer.Send(Envelope{Type: "error", Data: "not found or expired", Timestamp: time.Now().UnixMilli()})
						continue
					}
					tracked.add(msg.TrackedUserID, msg.Token)
				}
				hub.Attach(msg.TrackedUserID, connID, viewer)
				viewer.Send(Envelope{Type: "tracking_started", UserID: msg.TrackedUserID, Timestamp: time.Now().UnixMilli()})

			case "stop_tracking":
				if msg.TrackedUserID == "" {
					continue
				}
				tracked.remove(msg.TrackedUserID)
				hub.Detach(msg.TrackedUserID, connID)
				viewer.Send(Envelope{Type: "tracking_stopped", UserID: msg.TrackedUserID, Timestamp: time.Now().UnixMilli()})

			case "ping":
				viewer.Send(Envelope{Type: "pong", Timestamp: time.Now().UnixMilli()})
			}
		}
	}
}

// StatsHandler reports hub attachment counts.
func StatsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.Stats())
	}
}
