package sharing

import (
	"time"

	"github.com/lib/pq"
)

// ShortTokenLen is the prefix length used for compact tracking links.
const ShortTokenLen = 12

// SharingSession is the sole authorization artifact for anonymous viewers of
// an owner's location stream. It carries no per-viewer identity; whoever
// holds the token may read while the session is live.
type SharingSession struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	UserID     string         `gorm:"index;not null" json:"user_id"`
	ActivityID uint           `json:"activity_id"`
	Token      string         `gorm:"uniqueIndex;not null" json:"token"`
	Contacts   pq.StringArray `gorm:"type:text[]" json:"contacts"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
	IsActive   bool           `json:"is_active"`
}

func (SharingSession) TableName() string { return "tracking.sharing_sessions" }

// ShortToken is the fixed-length prefix used in compact links. Resolution is
// a prefix-match scan, first match wins.
func (s *SharingSession) ShortToken() string {
	if len(s.Token) < ShortTokenLen {
		return s.Token
	}
	return s.Token[:ShortTokenLen]
}

// LiveAt reports the session's liveness at the given instant. Liveness is
// always derived; nothing besides an explicit stop or natural expiry ends a
// session.
func (s *SharingSession) LiveAt(now time.Time) bool {
	return s.IsActive && !now.After(s.ExpiresAt)
}
