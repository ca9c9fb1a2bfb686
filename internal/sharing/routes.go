package sharing

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
		r.Post("/start", StartHandler)
		r.Post("/{id}/stop", StopHandler)
		r.Get("/{id}/message", MessageHandler)
		r.Get("/active", ActiveHandler)
	})

	return r
}
