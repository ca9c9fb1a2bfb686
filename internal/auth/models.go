package auth

import "time"

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

type User struct {
	UserID         string  `gorm:"primaryKey" json:"user_id"`
	FullName       string  `json:"full_name"`
	PhoneNumber    string  `gorm:"uniqueIndex" json:"phone_number"`
	Email          string  `gorm:"uniqueIndex" json:"email"`
	Password       string  `json:"password" gorm:"-"`
	HashedPassword string  `json:"-"`
	Role           string  `gorm:"default:'user'" json:"role"`
	Session        Session `gorm:"foreignKey:UserID" json:"session"`
}

// EmergencyContact is a phone/email destination the user nominated ahead of
// time. New sharing sessions fall back to these when the caller supplies no
// contact list.
type EmergencyContact struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	UserID        string `gorm:"index;not null" json:"user_id"`
	ContactName   string `json:"contact_name"`
	ContactNumber string `json:"contact_number"`
	EmailContact  string `json:"email_contact"`
}

func (Session) TableName() string          { return "app_auth.sessions" }
func (User) TableName() string             { return "app_auth.users" }
func (EmergencyContact) TableName() string { return "app_auth.emergency_contacts" }
