package sharing

import (
	"log"

	"github.com/SalamaSafe/SS-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "tracking"); err != nil {
		log.Fatal("Failed to ensure schema tracking: ", err)
	}

	if err := db.DB.AutoMigrate(&SharingSession{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	DefaultRegistry = NewRegistry(NewGormStore(db.DB))
}
