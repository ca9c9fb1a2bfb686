package gps

import (
	"log"

	"github.com/SalamaSafe/SS-Backend/internal/db"
	"github.com/SalamaSafe/SS-Backend/internal/live"
)

func Init(hub *live.Hub) {
	if err := db.EnsureSchema(db.DB, "tracking"); err != nil {
		log.Fatal("Failed to ensure schema tracking: ", err)
	}

	if err := db.DB.AutoMigrate(&Activity{}, &GPSLog{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	DefaultLog = NewLog(NewGormStore(db.DB), hub)
}
