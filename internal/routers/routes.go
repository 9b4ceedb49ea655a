package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bridgequest/internal/handlers"
	"bridgequest/internal/metrics"
)

// New builds the server's router: REST API under /api/v1, the two WebSocket
// channel groups, health and metrics.
func New(h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Health)
	r.Method("GET", "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/games", func(r chi.Router) {
			r.Post("/", h.CreateGame)
			r.Post("/join", h.JoinGame)
			r.Get("/{id}", h.GetGame)
			r.Post("/{id}/start", h.StartGame)
			r.Post("/{id}/leave", h.LeaveGame)
			r.Get("/{id}/settings", h.GetSettings)
			r.Put("/{id}/settings", h.UpdateSettings)
			r.Get("/{id}/positions", h.ListPositions)
		})

		r.Post("/positions", h.CreatePosition)
	})

	r.Get("/ws/lobby/{id}", h.LobbyWS)
	r.Get("/ws/game/{id}", h.GameWS)

	return r
}
