// Package tracking is the public gateway for anonymous token-holders. It is
// read-only by construction: nothing routed here can write a fix or touch a
// session beyond reading it.
package tracking

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/SalamaSafe/SS-Backend/internal/gps"
	"github.com/SalamaSafe/SS-Backend/internal/sharing"
	"github.com/go-chi/chi/v5"
)

// SessionResolver is the slice of the sharing registry the gateway needs.
type SessionResolver interface {
	ResolveShortToken(prefix string) (*sharing.SharingSession, error)
	Authorize(ownerID, token string) (*sharing.SharingSession, error)
}

// FixReader is the slice of the GPS log the gateway needs.
type FixReader interface {
	Latest(ownerID string) (*gps.GPSLog, error)
	Trail(ownerID string, since time.Duration) ([]gps.GPSLog, error)
}

// Gateway composes the session registry and fix log behind anonymous,
// rate-limited, fail-closed handlers.
type Gateway struct {
	sessions SessionResolver
	fixes    FixReader
	limiter  *visitorLimiter
}

func NewGateway(sessions SessionResolver, fixes FixReader) *Gateway {
	return &Gateway{
		sessions: sessions,
		fixes:    fixes,
		limiter:  newVisitorLimiter(5, 10),
	}
}

// notFound is the single refusal for every liveness failure. Expired,
// stopped and nonexistent sessions are indistinguishable to a probing
// caller.
func notFound(w http.ResponseWriter) {
	http.Error(w, "Not found or expired", http.StatusNotFound)
}

type snapshot struct {
	UserID        string      `json:"user_id"`
	ActivityID    uint        `json:"activity_id"`
	Token         string      `json:"token"`
	ExpiresAt     time.Time   `json:"expires_at"`
	TimeRemaining int64       `json:"time_remaining_seconds"`
	Status        string      `json:"status"`
	Latest        *gps.GPSLog `json:"latest"`
}

func (g *Gateway) snapshotFor(session *sharing.SharingSession) snapshot {
	out := snapshot{
		UserID:        session.UserID,
		ActivityID:    session.ActivityID,
		Token:         session.Token,
		ExpiresAt:     session.ExpiresAt,
		TimeRemaining: int64(time.Until(session.ExpiresAt).Seconds()),
		Status:        "ok",
	}

	fix, err := g.fixes.Latest(session.UserID)
	if errors.Is(err, gps.ErrNotFound) {
		// Valid session, no data yet: degrade gracefully instead of erroring.
		out.Status = "waiting for location data"
		return out
	}
	if err != nil {
		log.Printf("tracking: latest fix lookup for %s failed: %v", session.UserID, err)
		out.Status = "waiting for location data"
		return out
	}
	out.Latest = fix
	return out
}

// ResolveHandler serves the compact link: short token in, session snapshot
// out.
func (g *Gateway) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	shortToken := chi.URLParam(r, "shortToken")

	session, err := g.sessions.ResolveShortToken(shortToken)
	if err != nil {
		notFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g.snapshotFor(session))
}

// LatestHandler serves polling viewers holding the full token.
func (g *Gateway) LatestHandler(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	token := r.URL.Query().Get("token")

	session, err := g.sessions.Authorize(owner, token)
	if err != nil {
		notFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g.snapshotFor(session))
}

// TrailHandler serves the recent path for viewers holding the full token.
func (g *Gateway) TrailHandler(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	token := r.URL.Query().Get("token")

	session, err := g.sessions.Authorize(owner, token)
	if err != nil {
		notFound(w)
		return
	}

	minutes := 60
	if v := r.URL.Query().Get("since_minutes"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "since_minutes must be a positive integer", http.StatusBadRequest)
			return
		}
		minutes = parsed
	}

	fixes, err := g.fixes.Trail(session.UserID, time.Duration(minutes)*time.Minute)
	if err != nil {
		http.Error(w, "Failed to load trail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id": session.UserID,
		"trail":   fixes,
	})
}

// RateLimit is the gateway's anonymous-abuse middleware, exported so main
// can apply it when registering the public routes on the root router.
func (g *Gateway) RateLimit(next http.Handler) http.Handler {
	return g.limiter.Middleware(next)
}

func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(g.RateLimit)
	r.Get("/t/{shortToken}", g.ResolveHandler)
	r.Get("/track/latest", g.LatestHandler)
	r.Get("/track/trail", g.TrailHandler)
	return r
}
