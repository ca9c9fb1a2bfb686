package proximity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/SalamaSafe/SS-Backend/internal/db"
	"github.com/SalamaSafe/SS-Backend/internal/geo"
	"github.com/go-chi/chi/v5"
)

// parsePoint pulls lat/lon/radius from the query string. radius defaults to
// 2000m and must be positive.
func parsePoint(r *http.Request) (lat, lon, radius float64, err error) {
	lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return 0, 0, 0, err
	}
	lon, err = strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		return 0, 0, 0, err
	}
	radius = 2000
	if v := r.URL.Query().Get("radius"); v != "" {
		radius, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return lat, lon, radius, nil
}

func badPoint(w http.ResponseWriter, lat, lon, radius float64, err error) bool {
	if err != nil {
		http.Error(w, "lat and lon are required", http.StatusBadRequest)
		return true
	}
	if !geo.ValidCoords(lat, lon) {
		http.Error(w, "Coordinates out of range", http.StatusBadRequest)
		return true
	}
	if radius <= 0 {
		http.Error(w, "radius must be positive", http.StatusBadRequest)
		return true
	}
	return false
}

// CheckHandler runs the combined proximity check: police within the query
// radius, danger zones within their own radii, classified warnings.
func CheckHandler(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, err := parsePoint(r)
	if badPoint(w, lat, lon, radius, err) {
		return
	}

	var zones []DangerZone
	if err := db.DB.Find(&zones, "is_active = ?", true).Error; err != nil {
		http.Error(w, "Failed to load danger zones", http.StatusInternalServerError)
		return
	}
	var police []PoliceLocation
	if err := db.DB.Find(&police).Error; err != nil {
		http.Error(w, "Failed to load police locations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Check(lat, lon, radius, zones, police))
}

// NearbyPoliceHandler lists stations within the query radius, nearest first.
func NearbyPoliceHandler(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, err := parsePoint(r)
	if badPoint(w, lat, lon, radius, err) {
		return
	}

	var police []PoliceLocation
	if err := db.DB.Find(&police).Error; err != nil {
		http.Error(w, "Failed to load police locations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NearbyPolice(lat, lon, radius, police))
}

// NearbyDangersHandler lists active zones within the query radius, nearest
// first. Unlike the combined check, the caller's radius decides inclusion.
func NearbyDangersHandler(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, err := parsePoint(r)
	if badPoint(w, lat, lon, radius, err) {
		return
	}

	var zones []DangerZone
	if err := db.DB.Find(&zones, "is_active = ?", true).Error; err != nil {
		http.Error(w, "Failed to load danger zones", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NearbyDangers(lat, lon, radius, zones))
}

// ReportHandler ingests a danger report. A report within 100m of an existing
// zone increments that zone's count instead of creating a near-duplicate.
func ReportHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		LocationName  string   `json:"location_name"`
		Latitude      *float64 `json:"latitude"`
		Longitude     *float64 `json:"longitude"`
		Description   string   `json:"description"`
		SeverityLevel int      `json:"severity_level"`
		Radius        float64  `json:"radius"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Latitude == nil || input.Longitude == nil {
		http.Error(w, "latitude and longitude are required", http.StatusBadRequest)
		return
	}
	if !geo.ValidCoords(*input.Latitude, *input.Longitude) {
		http.Error(w, "Coordinates out of range", http.StatusBadRequest)
		return
	}

	var zones []DangerZone
	if err := db.DB.Find(&zones).Error; err != nil {
		http.Error(w, "Failed to load danger zones", http.StatusInternalServerError)
		return
	}

	for _, z := range zones {
		if geo.Distance(*input.Latitude, *input.Longitude, z.Latitude, z.Longitude) <= 100 {
			if err := db.DB.Model(&DangerZone{}).Where("id = ?", z.ID).
				Update("reported_count", z.ReportedCount+1).Error; err != nil {
				http.Error(w, "Failed to update danger zone", http.StatusInternalServerError)
				return
			}
			z.ReportedCount++
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(z)
			return
		}
	}

	radius := input.Radius
	if radius <= 0 {
		radius = 500
	}
	zone := DangerZone{
		LocationName:  input.LocationName,
		Latitude:      *input.Latitude,
		Longitude:     *input.Longitude,
		Description:   input.Description,
		SeverityLevel: input.SeverityLevel,
		ReportedCount: 1,
		IsActive:      true,
		Radius:        radius,
	}
	if err := db.DB.Create(&zone).Error; err != nil {
		http.Error(w, "Failed to create danger zone", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(zone)
}

// DeactivateZoneHandler takes a zone out of circulation without deleting its
// report history. Admin only.
func DeactivateZoneHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid zone id", http.StatusBadRequest)
		return
	}

	res := db.DB.Model(&DangerZone{}).Where("id = ?", uint(id)).Update("is_active", false)
	if res.Error != nil {
		http.Error(w, "Failed to deactivate danger zone", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "Danger zone not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deactivated"})
}
