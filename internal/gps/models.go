package gps

import "time"

// Activity groups a user's fixes (a walk home, a matatu ride). Fixes may
// reference one; the submit path verifies it belongs to the submitter.
type Activity struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`
	Name   string `json:"name"`
}

// GPSLog is one timestamped position fix. Append-only: rows are never
// updated or deleted in normal operation, and arrival order is not
// timestamp order, so readers sort by recorded_at.
type GPSLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"index:idx_gps_owner_time;not null" json:"user_id"`
	ActivityID uint      `json:"activity_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `gorm:"index:idx_gps_owner_time" json:"recorded_at"`
}

func (Activity) TableName() string { return "tracking.activities" }
func (GPSLog) TableName() string   { return "tracking.gps_logs" }
