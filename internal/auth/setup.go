package auth

import (
	"log"

	"github.com/SalamaSafe/SS-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "app_auth"); err != nil {
		log.Fatal("Failed to ensure schema app_auth: ", err)
	}

	if err := db.DB.AutoMigrate(&User{}, &Session{}, &EmergencyContact{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
