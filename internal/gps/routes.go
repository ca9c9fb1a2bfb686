package gps

import (
	"net/http"

	"github.com/SalamaSafe/SS-Backend/internal/auth"
	"github.com/SalamaSafe/SS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Post("/log", SubmitHandler)
		r.Get("/latest", LatestHandler)
		r.Get("/trail", TrailHandler)
		r.Get("/activities", ActivitiesHandler)
		r.Post("/activities", ActivitiesHandler)
	})

	return r
}
