package proximity

// DangerZone is a reported unsafe area. Mutated only by the report-ingestion
// flow; the evaluator treats the collection as a read-only snapshot.
type DangerZone struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	LocationName  string  `json:"location_name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Description   string  `json:"description"`
	ReportedCount int     `json:"reported_count"`
	SeverityLevel int     `json:"severity_level"`
	IsActive      bool    `json:"is_active"`
	Radius        float64 `json:"radius"` // meters
}

// PoliceLocation is static reference data.
type PoliceLocation struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Name          string  `json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ContactNumber string  `json:"contact_number"`
}

func (DangerZone) TableName() string     { return "safety.danger_zones" }
func (PoliceLocation) TableName() string { return "safety.police_locations" }
