package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the service's HTTP surface: the provider webhook, the
// front-office admin endpoints and a health probe.
func NewRouter(webhook *WebhookHandler, admin *AdminHandler, checkDB, checkCache func(context.Context) error, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chi_middleware.RequestID)
	r.Use(chi_middleware.RealIP)
	r.Use(chi_middleware.Recoverer)
	r.Use(chi_middleware.Timeout(60 * time.Second))
	r.Use(PrometheusMetricsMiddleware)

	r.Post("/webhooks/messages", webhook.HandleMessageEvent)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/rooms/checkin", admin.HandleCheckIn)
		r.Post("/rooms/checkout", admin.HandleCheckOut)
		r.Get("/requests", admin.HandleListRequests)
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := checkDB(ctx); err != nil {
			logger.WarnContext(ctx, "Health check failed: database unreachable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "db_unreachable"})
			return
		}
		if err := checkCache(ctx); err != nil {
			// Cache loss degrades performance, not correctness.
			logger.WarnContext(ctx, "Health check: cache unreachable", "error", err)
			writeJSON(w, http.StatusOK, statusResponse{Status: "degraded_no_cache"})
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	})

	return r
}
