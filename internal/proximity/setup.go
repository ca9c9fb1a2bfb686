package proximity

import (
	"log"

	"github.com/SalamaSafe/SS-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "safety"); err != nil {
		log.Fatal("Failed to ensure schema safety: ", err)
	}

	if err := db.DB.AutoMigrate(&DangerZone{}, &PoliceLocation{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
