// internal/api/router.go
package api

import (
	"net/http"

	"hms-analytics/internal/common/config"
	"hms-analytics/internal/common/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the handler, middleware stack and metrics endpoint.
func NewRouter(h *Handler, cfg config.ServerConfig, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(RequestTimeout(config.GetDuration(cfg.RequestTimeout)))

	r.MethodNotAllowed(h.MethodNotAllowed)
	r.NotFound(h.NotFound)

	r.Get(PathHome, h.Info)
	r.Get(PathHealth, h.Health)
	r.Get(PathReady, h.Ready)
	r.Method(http.MethodGet, PathMetrics, promhttp.Handler())

	r.Get(PathInsights, h.Insights)
	r.Get(PathDashboard, h.Insights)

	return r
}
