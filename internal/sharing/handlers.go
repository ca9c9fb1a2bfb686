package sharing

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/SalamaSafe/SS-Backend/internal/auth"
	"github.com/SalamaSafe/SS-Backend/internal/db"
	"github.com/SalamaSafe/SS-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
)

// DefaultRegistry is wired to postgres in Init. Handlers go through it so
// tests can swap in an in-memory store.
var DefaultRegistry *Registry

// BaseURL is where public tracking links point.
func BaseURL() string {
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:5050"
}

type sessionResponse struct {
	*SharingSession
	ShareURL      string `json:"share_url"`
	ShortURL      string `json:"short_url"`
	TimeRemaining int64  `json:"time_remaining_seconds"`
}

func toResponse(s *SharingSession) sessionResponse {
	base := BaseURL()
	remaining := int64(time.Until(s.ExpiresAt).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return sessionResponse{
		SharingSession: s,
		ShareURL:       base + "/track/" + s.Token,
		ShortURL:       base + "/t/" + s.ShortToken(),
		TimeRemaining:  remaining,
	}
}

// StartHandler opens a new sharing session for the caller. When the request
// carries no contacts, the caller's saved emergency contacts are used.
func StartHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		ActivityID    uint     `json:"activity_id"`
		Contacts      []string `json:"contacts"`
		DurationHours int      `json:"duration_hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contacts := input.Contacts
	if len(contacts) == 0 {
		var saved []auth.EmergencyContact
		if err := db.DB.Find(&saved, "user_id = ?", userID).Error; err == nil {
			for _, c := range saved {
				if c.ContactNumber != "" {
					contacts = append(contacts, c.ContactNumber)
				} else if c.EmailContact != "" {
					contacts = append(contacts, c.EmailContact)
				}
			}
		}
	}

	session, err := DefaultRegistry.Create(userID, input.ActivityID, contacts, input.DurationHours)
	if err != nil {
		if errors.Is(err, ErrInvalidDuration) {
			http.Error(w, "duration_hours must be positive", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create sharing session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toResponse(session))
}

// StopHandler deactivates one of the caller's sessions.
func StopHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID := chi.URLParam(r, "id")
	err := DefaultRegistry.Stop(sessionID, userID)
	switch {
	case errors.Is(err, ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Session not found", http.StatusNotFound)
	case err != nil:
		http.Error(w, "Failed to stop session", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "stopped"})
	}
}

// MessageHandler renders the shareable text and per-channel links for one of
// the caller's sessions, parameterized by template key.
func MessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := DefaultRegistry.Get(sessionID, userID)
	switch {
	case errors.Is(err, ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	case err != nil:
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	templateKey := r.URL.Query().Get("template")
	if templateKey == "" {
		templateKey = "default"
	}
	customText := r.URL.Query().Get("text")

	shortURL := BaseURL() + "/t/" + session.ShortToken()
	message := BuildShareMessage(templateKey, customText, shortURL, session.ExpiresAt)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message":    message,
		"short_url":  shortURL,
		"expires_at": FormatExpiry(session.ExpiresAt),
		"channels":   ChannelLinks(message, shortURL),
		"templates":  TemplateKeys(),
	})
}

// ActiveHandler lists the caller's currently live sessions.
func ActiveHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var sessions []SharingSession
	err := db.DB.
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		http.Error(w, "Failed to load sessions", http.StatusInternalServerError)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, toResponse(&sessions[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
