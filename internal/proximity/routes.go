package proximity

import (
	"net/http"

	"github.com/SalamaSafe/SS-Backend/internal/auth"
	"github.com/SalamaSafe/SS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	// Proximity reads are open: a user checking whether an area is safe may
	// not be logged in.
	r.Get("/proximity-check", CheckHandler)
	r.Get("/police/nearby", NearbyPoliceHandler)
	r.Get("/danger-zones/nearby", NearbyDangersHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Post("/danger-zones/report", ReportHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))
		r.Post("/danger-zones/{id}/deactivate", DeactivateZoneHandler)
	})

	return r
}
