package sharing

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// gormStore persists sessions in postgres via the shared gorm handle.
type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (g *gormStore) Create(s *SharingSession) error {
	return g.db.Create(s).Error
}

func (g *gormStore) ByID(id string) (*SharingSession, error) {
	var session SharingSession
	err := g.db.First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (g *gormStore) ByToken(ownerID, token string) (*SharingSession, error) {
	var session SharingSession
	err := g.db.First(&session, "user_id = ? AND token = ?", ownerID, token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (g *gormStore) LiveByShortToken(prefix string, now time.Time) (*SharingSession, error) {
	var session SharingSession
	// Scan order is creation order, so the oldest live session wins a prefix
	// collision, matching existing link behavior.
	err := g.db.
		Where("token LIKE ? AND is_active = ? AND expires_at > ?", prefix+"%", true, now).
		Order("created_at ASC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (g *gormStore) SetInactive(id string) error {
	res := g.db.Model(&SharingSession{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
