package live

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SalamaSafe/SS-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// fakeSessions maps cookie values to session data.
type fakeSessions struct {
	sessions map[string]utils.SessionData
}

func (f *fakeSessions) FindSessionByID(id string) (utils.SessionData, error) {
	s, ok := f.sessions[id]
	if !ok {
		return utils.SessionData{}, errors.New("session not found")
	}
	return s, nil
}

// fakeAuthorizer accepts one token per owner.
type fakeAuthorizer struct {
	allowed map[string]string
}

func (f *fakeAuthorizer) Authorize(ownerID, token string) error {
	if tok, ok := f.allowed[ownerID]; ok && tok == token {
		return nil
	}
	return errors.New("not found or expired")
}

func newSocketServer(t *testing.T, hub *Hub, auth Authorizer, sessions SessionFetcher) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ws/location/{user_id}", SocketHandler(hub, auth, sessions))
	s := httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func dialSocket(t *testing.T, s *httptest.Server, path string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(s.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(u, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("reading envelope: %v", err)
	}
	return env
}

func TestSocket_RejectsAnonymousConnect(t *testing.T) {
	hub := newStartedHub()
	s := newSocketServer(t, hub, &fakeAuthorizer{}, &fakeSessions{})

	_, resp, err := dialSocket(t, s, "/ws/location/alice", nil)
	if err == nil {
		t.Fatal("expected handshake to fail without credentials")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %+v", resp)
	}
	if n := hub.Stats().TotalConnections; n != 0 {
		t.Errorf("no viewer should be attached, got %d", n)
	}
}

func TestSocket_RejectsCrossUserCookie(t *testing.T) {
	hub := newStartedHub()
	sessions := &fakeSessions{sessions: map[string]utils.SessionData{
		"sess-bob": {UserID: "bob", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	s := newSocketServer(t, hub, &fakeAuthorizer{}, sessions)

	header := http.Header{"Cookie": {"session_id=sess-bob"}}
	_, resp, err := dialSocket(t, s, "/ws/location/alice", header)
	if err == nil {
		t.Fatal("expected handshake to fail for another user's stream")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %+v", resp)
	}
}

func TestSocket_RejectsExpiredCookie(t *testing.T) {
	hub := newStartedHub()
	sessions := &fakeSessions{sessions: map[string]utils.SessionData{
		"sess-old": {UserID: "alice", ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	s := newSocketServer(t, hub, &fakeAuthorizer{}, sessions)

	header := http.Header{"Cookie": {"session_id=sess-old"}}
	_, resp, err := dialSocket(t, s, "/ws/location/alice", header)
	if err == nil {
		t.Fatal("expected handshake to fail for an expired session")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %+v", resp)
	}
}

func TestSocket_OwnerConnectsWithCookie(t *testing.T) {
	hub := newStartedHub()
	sessions := &fakeSessions{sessions: map[string]utils.SessionData{
		"sess-alice": {UserID: "alice", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	s := newSocketServer(t, hub, &fakeAuthorizer{}, sessions)

	header := http.Header{"Cookie": {"session_id=sess-alice"}}
	conn, _, err := dialSocket(t, s, "/ws/location/alice", header)
	if err != nil {
		t.Fatalf("owner handshake failed: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != "connection_established" || env.UserID != "alice" {
		t.Errorf("unexpected first envelope: %+v", env)
	}
}

func TestSocket_RejectsBadToken(t *testing.T) {
	hub := newStartedHub()
	s := newSocketServer(t, hub, &fakeAuthorizer{}, &fakeSessions{})

	_, resp, err := dialSocket(t, s, "/ws/location/alice?token=wrong", nil)
	if err == nil {
		t.Fatal("expected handshake to fail with an invalid token")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %+v", resp)
	}
}

// A token-holder may watch the stream but never broadcast as the owner.
func TestSocket_TokenViewerIsReadOnly(t *testing.T) {
	hub := newStartedHub()
	auth := &fakeAuthorizer{allowed: map[string]string{"alice": "tok-1"}}
	s := newSocketServer(t, hub, auth, &fakeSessions{})

	conn, _, err := dialSocket(t, s, "/ws/location/alice?token=tok-1", nil)
	if err != nil {
		t.Fatalf("token handshake failed: %v", err)
	}
	if env := readEnvelope(t, conn); env.Type != "connection_established" {
		t.Fatalf("unexpected first envelope: %+v", env)
	}

	watcher := &fakeViewer{}
	hub.Attach("alice", "conn-watcher", watcher)

	err = conn.WriteJSON(clientMessage{
		Type: "location_update",
		Data: []byte(`{"latitude": 1, "longitude": 2}`),
	})
	if err != nil {
		t.Fatalf("writing frame: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != "error" {
		t.Errorf("expected error envelope for read-only push, got %+v", env)
	}
	if len(watcher.got) != 0 {
		t.Errorf("spoofed update must not reach other viewers, got %d", len(watcher.got))
	}
}

// A token-gated attachment is detached once its session stops authorizing.
func TestTrackedSessions_ReapDetachesStaleGrants(t *testing.T) {
	hub := newStartedHub()
	viewer := &fakeViewer{}
	hub.Attach("owner-x", "conn-1", viewer)
	hub.Attach("owner-y", "conn-1", viewer)

	tracked := newTrackedSessions()
	tracked.add("owner-x", "tok-x")
	tracked.add("owner-y", "tok-y")

	// owner-x's share is still live; owner-y's has been stopped.
	auth := &fakeAuthorizer{allowed: map[string]string{"owner-x": "tok-x"}}
	tracked.reap(hub, auth, "conn-1", viewer)

	hub.Broadcast("owner-x", Update{Latitude: 1})
	hub.Broadcast("owner-y", Update{Latitude: 2})

	var stopped, updates int
	for _, env := range viewer.got {
		switch env.Type {
		case "tracking_stopped":
			stopped++
			if env.UserID != "owner-y" {
				t.Errorf("wrong stream reaped: %s", env.UserID)
			}
		case "location_update":
			updates++
			if env.UserID != "owner-x" {
				t.Errorf("received fix from detached stream: %s", env.UserID)
			}
		}
	}
	if stopped != 1 {
		t.Errorf("expected one tracking_stopped notice, got %d", stopped)
	}
	if updates != 1 {
		t.Errorf("expected only the live stream's fix, got %d", updates)
	}
}
