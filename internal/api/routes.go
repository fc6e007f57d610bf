package api

import (
	"net/http"
	"time"

	"trading-contest/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second))
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware)

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", h.HandleHealth)

		// Contests
		r.Route("/contests", func(r chi.Router) {
			r.Post("/", h.HandleCreateContest)
			r.Get("/", h.HandleGetContests)
			r.Post("/join", h.HandleJoinContest)
			r.Get("/{id}/players", h.HandleGetContestPlayers)
			r.Get("/{id}/leaderboard", h.HandleGetLeaderboard)
			r.Get("/{id}/trades", h.HandleGetContestTrades)
			r.Post("/{id}/complete", h.HandleCompleteContest)
		})

		// Players
		r.Route("/players", func(r chi.Router) {
			r.Post("/{id}/trades", h.HandleSubmitTrade)
			r.Get("/{id}/trades", h.HandleGetPlayerTrades)
			r.Get("/{id}/positions", h.HandleGetPlayerPositions)
		})

		// Screenshot extraction
		r.Post("/extract", h.HandleExtractTrade)
	})

	return r
}

// CORSMiddleware returns CORS middleware with the specified allowed origins
func CORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
