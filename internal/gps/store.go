package gps

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (g *gormStore) Append(fix *GPSLog) error {
	return g.db.Create(fix).Error
}

func (g *gormStore) Latest(ownerID string) (*GPSLog, error) {
	var fix GPSLog
	err := g.db.
		Where("user_id = ?", ownerID).
		Order("recorded_at DESC").
		First(&fix).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fix, nil
}

func (g *gormStore) Trail(ownerID string, cutoff time.Time) ([]GPSLog, error) {
	var fixes []GPSLog
	err := g.db.
		Where("user_id = ? AND recorded_at >= ?", ownerID, cutoff).
		Order("recorded_at ASC").
		Find(&fixes).Error
	if err != nil {
		return nil, err
	}
	return fixes, nil
}

func (g *gormStore) ActivityOwner(activityID uint) (string, error) {
	var activity Activity
	err := g.db.First(&activity, "id = ?", activityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return activity.UserID, nil
}
