// Package api provides the HTTP server for the economy service.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/economy"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/infra/anomaly"
)

// NotificationReader pages persisted notifications for the API.
type NotificationReader interface {
	Notifications(userID string, limit int) ([]domain.Notification, error)
}

// Server is the economy HTTP API server.
type Server struct {
	economy        *economy.Service
	detector       *anomaly.Detector
	notifications  NotificationReader // nil disables the endpoint
	metricsEnabled bool
	requestTimeout time.Duration
}

// NewServer creates a new API server.
func NewServer(svc *economy.Service, detector *anomaly.Detector) *Server {
	return &Server{
		economy:        svc,
		detector:       detector,
		requestTimeout: 30 * time.Second,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetNotificationReader enables the notifications endpoint.
func (s *Server) SetNotificationReader(r NotificationReader) { s.notifications = r }

// SetRequestTimeout overrides the per-request timeout.
func (s *Server) SetRequestTimeout(d time.Duration) { s.requestTimeout = d }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api/economy/{userID}", func(r chi.Router) {
		r.Get("/", s.handleState)
		r.Get("/history", s.handleHistory)
		r.Get("/notifications", s.handleNotifications)
		r.Post("/check-in", s.handleCheckIn)
		r.Post("/purchase", s.handlePurchase)
		r.Post("/missions/{missionID}/approve", s.handleMissionApprove)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/economy/{userID}/adjust", s.handleAdminAdjust)
		r.Post("/economy/{userID}/jackpot-win", s.handleJackpotWin)
		r.Get("/economy/{userID}/audit", s.handleAudit)
		r.Get("/anomalies", s.handleAnomalies)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
