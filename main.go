package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/SalamaSafe/SS-Backend/internal/auth"
	"github.com/SalamaSafe/SS-Backend/internal/db"
	"github.com/SalamaSafe/SS-Backend/internal/gps"
	"github.com/SalamaSafe/SS-Backend/internal/live"
	"github.com/SalamaSafe/SS-Backend/internal/middleware"
	"github.com/SalamaSafe/SS-Backend/internal/proximity"
	"github.com/SalamaSafe/SS-Backend/internal/sharing"
	"github.com/SalamaSafe/SS-Backend/internal/tracking"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

// shareAuthorizer gates websocket tracking attachments on a live sharing
// session.
type shareAuthorizer struct{}

func (shareAuthorizer) Authorize(ownerID, token string) error {
	_, err := sharing.DefaultRegistry.Authorize(ownerID, token)
	return err
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	hub := live.NewHub()
	hub.Start()
	defer hub.Stop()

	auth.Init()
	sharing.Init()
	gps.Init(hub)
	proximity.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/gps", gps.SetupRoutes())
	r.Mount("/share", sharing.SetupRoutes())
	r.Mount("/safety", proximity.SetupRoutes())

	// Anonymous public gateway: short links and token-holder polling.
	gw := tracking.NewGateway(sharing.DefaultRegistry, gps.DefaultLog)
	r.Group(func(r chi.Router) {
		r.Use(gw.RateLimit)
		r.Get("/t/{shortToken}", gw.ResolveHandler)
		r.Get("/track/latest", gw.LatestHandler)
		r.Get("/track/trail", gw.TrailHandler)
	})

	r.Get("/ws/location/{user_id}", live.SocketHandler(hub, shareAuthorizer{}, auth.SessionInfo{}))
	r.Get("/ws/stats", live.StatsHandler(hub))

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
