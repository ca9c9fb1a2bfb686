package main

import (
	"log"
	"os"

	"github.com/SalamaSafe/SS-Backend/internal/db"
	"github.com/SalamaSafe/SS-Backend/internal/proximity"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// seedFile is the YAML shape of internal/proximity/data/reference.yaml.
type seedFile struct {
	PoliceLocations []struct {
		Name          string  `yaml:"name"`
		Latitude      float64 `yaml:"latitude"`
		Longitude     float64 `yaml:"longitude"`
		ContactNumber string  `yaml:"contact_number"`
	} `yaml:"police_locations"`
	DangerZones []struct {
		LocationName  string  `yaml:"location_name"`
		Latitude      float64 `yaml:"latitude"`
		Longitude     float64 `yaml:"longitude"`
		Description   string  `yaml:"description"`
		SeverityLevel int     `yaml:"severity_level"`
		Radius        float64 `yaml:"radius"`
	} `yaml:"danger_zones"`
}

func main() {
	// Load .env for DB credentials
	if err := godotenv.Load(".env.local"); err != nil {
		log.Println("No .env.local file, using process env")
	}

	db.Connect()
	proximity.Init()

	path := "internal/proximity/data/reference.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Could not read %s: %v", path, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("Failed unmarshaling yaml: %v", err)
	}

	for _, s := range seed.PoliceLocations {
		var existing proximity.PoliceLocation
		err := db.DB.First(&existing, "name = ?", s.Name).Error
		if err == nil {
			log.Printf("Police location already exists, skipping: %s", s.Name)
			continue
		} else if err != gorm.ErrRecordNotFound {
			log.Fatalf("DB error while checking police location %s: %v", s.Name, err)
		}

		station := proximity.PoliceLocation{
			Name:          s.Name,
			Latitude:      s.Latitude,
			Longitude:     s.Longitude,
			ContactNumber: s.ContactNumber,
		}
		if err := db.DB.Create(&station).Error; err != nil {
			log.Fatalf("Failed to insert police location %s: %v", s.Name, err)
		}
		log.Printf("Seeded police location: %s", s.Name)
	}

	for _, z := range seed.DangerZones {
		var existing proximity.DangerZone
		err := db.DB.First(&existing, "location_name = ?", z.LocationName).Error
		if err == nil {
			log.Printf("Danger zone already exists, skipping: %s", z.LocationName)
			continue
		} else if err != gorm.ErrRecordNotFound {
			log.Fatalf("DB error while checking danger zone %s: %v", z.LocationName, err)
		}

		zone := proximity.DangerZone{
			LocationName:  z.LocationName,
			Latitude:      z.Latitude,
			Longitude:     z.Longitude,
			Description:   z.Description,
			SeverityLevel: z.SeverityLevel,
			IsActive:      true,
			Radius:        z.Radius,
		}
		if err := db.DB.Create(&zone).Error; err != nil {
			log.Fatalf("Failed to insert danger zone %s: %v", z.LocationName, err)
		}
		log.Printf("Seeded danger zone: %s", z.LocationName)
	}

	log.Println("Seeding complete")
}
