package gps

import (
	"errors"
	"time"

	"github.com/SalamaSafe/SS-Backend/internal/geo"
	"github.com/SalamaSafe/SS-Backend/internal/live"
)

var (
	ErrNotFound      = errors.New("no fix recorded")
	ErrInvalidCoords = errors.New("coordinates out of range")
	ErrForbidden     = errors.New("activity belongs to another user")
)

// Store is the persistence contract for the fix log.
type Store interface {
	Append(fix *GPSLog) error
	Latest(ownerID string) (*GPSLog, error)
	// Trail returns fixes with recorded_at >= cutoff, ascending by time.
	Trail(ownerID string, cutoff time.Time) ([]GPSLog, error)
	ActivityOwner(activityID uint) (string, error)
}

// Log is the append-only ingest log. Appends trigger the live hub
// asynchronously; persistence never waits on fan-out.
type Log struct {
	store Store
	hub   *live.Hub
	now   func() time.Time
}

func NewLog(store Store, hub *live.Hub) *Log {
	return &Log{store: store, hub: hub, now: time.Now}
}

// Append persists a fix and dispatches it to attached viewers. The fix is
// stamped server-side; client clocks are not trusted for ordering.
func (l *Log) Append(ownerID string, activityID uint, lat, lon float64) (*GPSLog, error) {
	if !geo.ValidCoords(lat, lon) {
		return nil, ErrInvalidCoords
	}
	if activityID != 0 {
		owner, err := l.store.ActivityOwner(activityID)
		if err != nil {
			return nil, err
		}
		if owner != ownerID {
			return nil, ErrForbidden
		}
	}

	fix := &GPSLog{
		UserID:     ownerID,
		ActivityID: activityID,
		Latitude:   lat,
		Longitude:  lon,
		RecordedAt: l.now().UTC(),
	}
	if err := l.store.Append(fix); err != nil {
		return nil, err
	}

	// Fire-and-forget: a dropped push is acceptable, pollers recover via
	// Latest/Trail.
	if l.hub != nil {
		go l.hub.Broadcast(ownerID, live.Update{
			UserID:     fix.UserID,
			ActivityID: fix.ActivityID,
			Latitude:   fix.Latitude,
			Longitude:  fix.Longitude,
			RecordedAt: fix.RecordedAt,
		})
	}
	return fix, nil
}

// Latest returns the fix with the maximum recorded_at for the owner.
func (l *Log) Latest(ownerID string) (*GPSLog, error) {
	return l.store.Latest(ownerID)
}

// Trail returns all fixes in the trailing window, oldest first. Pure read.
func (l *Log) Trail(ownerID string, since time.Duration) ([]GPSLog, error) {
	return l.store.Trail(ownerID, l.now().Add(-since))
}
