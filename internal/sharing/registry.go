package sharing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound covers absent, expired and stopped sessions alike so that
	// probing cannot distinguish a dead link from one that never existed.
	ErrNotFound = errors.New("session not found or expired")
	// ErrForbidden means the actor is not the session owner.
	ErrForbidden = errors.New("not the session owner")
	// ErrInvalidDuration rejects non-positive share durations.
	ErrInvalidDuration = errors.New("duration must be positive")
)

// Store is the persistence contract for sharing sessions.
type Store interface {
	Create(s *SharingSession) error
	ByID(id string) (*SharingSession, error)
	ByToken(ownerID, token string) (*SharingSession, error)
	// LiveByShortToken returns the first session, in scan order, whose token
	// starts with prefix and which is live at the given instant.
	LiveByShortToken(prefix string, now time.Time) (*SharingSession, error)
	SetInactive(id string) error
}

// Registry issues, resolves and revokes sharing sessions. The clock and
// token source are injectable for tests; both default to the real thing.
type Registry struct {
	store    Store
	now      func() time.Time
	newToken func() (string, error)
}

func NewRegistry(store Store) *Registry {
	return &Registry{
		store:    store,
		now:      time.Now,
		newToken: generateToken,
	}
}

// generateToken returns 32 random bytes hex-encoded: 64 chars, of which the
// first 12 form the short token.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create opens a new sharing session for the owner. Existing sessions are
// untouched; many live sessions per owner/activity are allowed. Token
// generation retries while the short prefix collides with a live session,
// which keeps first-match short-link resolution unambiguous without changing
// its semantics.
func (r *Registry) Create(ownerID string, activityID uint, contacts []string, durationHours int) (*SharingSession, error) {
	if durationHours <= 0 {
		return nil, ErrInvalidDuration
	}

	now := r.now()

	var token string
	for attempt := 0; ; attempt++ {
		t, err := r.newToken()
		if err != nil {
			return nil, err
		}
		_, err = r.store.LiveByShortToken(t[:ShortTokenLen], now)
		if errors.Is(err, ErrNotFound) {
			token = t
			break
		}
		if err != nil {
			return nil, err
		}
		if attempt >= 4 {
			return nil, errors.New("could not generate a unique share token")
		}
	}

	session := &SharingSession{
		ID:         uuid.NewString(),
		UserID:     ownerID,
		ActivityID: activityID,
		Contacts:   contacts,
		Token:      token,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(durationHours) * time.Hour),
		IsActive:   true,
	}
	if err := r.store.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// validShortToken reports whether s could be a prefix of a generated token:
// exactly ShortTokenLen lowercase hex characters. Anything else is rejected
// before it reaches the store, which keeps LIKE metacharacters such as '_'
// and '%' out of the prefix pattern.
func validShortToken(s string) bool {
	if len(s) != ShortTokenLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ResolveShortToken finds the live session whose token starts with prefix.
// Liveness is re-checked at resolution time, never cached.
func (r *Registry) ResolveShortToken(prefix string) (*SharingSession, error) {
	if !validShortToken(prefix) {
		return nil, ErrNotFound
	}
	session, err := r.store.LiveByShortToken(prefix, r.now())
	if err != nil {
		return nil, err
	}
	if !session.LiveAt(r.now()) {
		return nil, ErrNotFound
	}
	return session, nil
}

// Authorize validates an exact token for the owner's stream plus liveness.
func (r *Registry) Authorize(ownerID, token string) (*SharingSession, error) {
	session, err := r.store.ByToken(ownerID, token)
	if err != nil {
		return nil, err
	}
	if !session.LiveAt(r.now()) {
		return nil, ErrNotFound
	}
	return session, nil
}

// Stop deactivates a session. Only the owner may stop it; anyone else gets
// ErrForbidden, a dead or missing session gets ErrNotFound.
func (r *Registry) Stop(sessionID, ownerID string) error {
	session, err := r.store.ByID(sessionID)
	if err != nil {
		return err
	}
	if session.UserID != ownerID {
		return ErrForbidden
	}
	return r.store.SetInactive(sessionID)
}

// Get returns a session by id for its owner, regardless of liveness. Used by
// the owner-facing listing so a just-stopped session is still inspectable.
func (r *Registry) Get(sessionID, ownerID string) (*SharingSession, error) {
	session, err := r.store.ByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != ownerID {
		return nil, ErrForbidden
	}
	return session, nil
}
