package gps

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SalamaSafe/SS-Backend/internal/db"
	"github.com/SalamaSafe/SS-Backend/internal/utils"
)

// DefaultLog is wired to postgres and the live hub in Init.
var DefaultLog *Log

// SubmitHandler ingests one fix from the authenticated owner. Ingestion
// failures are always surfaced to the submitting client; fan-out failures
// never are.
func SubmitHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		ActivityID uint     `json:"activity_id"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Latitude == nil || input.Longitude == nil {
		http.Error(w, "latitude and longitude are required", http.StatusBadRequest)
		return
	}

	fix, err := DefaultLog.Append(userID, input.ActivityID, *input.Latitude, *input.Longitude)
	switch {
	case errors.Is(err, ErrInvalidCoords):
		http.Error(w, "Coordinates out of range", http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "Activity belongs to another user", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Activity not found", http.StatusBadRequest)
	case err != nil:
		http.Error(w, "Failed to record location", http.StatusInternalServerError)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(fix)
	}
}

// LatestHandler returns the caller's most recent fix.
func LatestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	fix, err := DefaultLog.Latest(userID)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "No location recorded yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load location", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fix)
}

// TrailHandler returns the caller's fixes in the trailing window, oldest
// first. Defaults to the last 60 minutes.
func TrailHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	minutes := 60
	if v := r.URL.Query().Get("since_minutes"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "since_minutes must be a positive integer", http.StatusBadRequest)
			return
		}
		minutes = parsed
	}

	fixes, err := DefaultLog.Trail(userID, time.Duration(minutes)*time.Minute)
	if err != nil {
		http.Error(w, "Failed to load trail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fixes)
}

// ActivitiesHandler lists or creates the caller's activities.
func ActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		var activities []Activity
		if err := db.DB.Find(&activities, "user_id = ?", userID).Error; err != nil {
			http.Error(w, "Failed to load activities", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(activities)

	case http.MethodPost:
		var activity Activity
		if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if activity.Name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}
		activity.ID = 0
		activity.UserID = userID
		if err := db.DB.Create(&activity).Error; err != nil {
			http.Error(w, "Failed to create activity", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(activity)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
