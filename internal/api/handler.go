// internal/api/handler.go
package api

import (
	"context"
	stderrors "errors"
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"hms-analytics/internal/common/config"
	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/common/logger"
	"hms-analytics/internal/insights"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

// Routes served by the API.
const (
	PathHome      = "/"
	PathHealth    = "/health"
	PathReady     = "/ready"
	PathMetrics   = "/metrics"
	PathInsights  = "/api/v1/analytics/doctor-patient-insights"
	PathDashboard = "/api/v1/analytics/dashboard"
)

const notifyTimeout = 10 * time.Second

// Notifier receives DataUnavailable failures for operator alerting.
type Notifier interface {
	NotifyDataUnavailable(ctx context.Context, cause error) error
}

type Handler struct {
	store        insights.Store
	app          config.AppConfig
	logger       logger.Logger
	errHandler   *errors.ErrorHandler
	notifier     Notifier
	readyTimeout time.Duration
	now          func() time.Time
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithNotifier sends DataUnavailable failures to n in the background.
func WithNotifier(n Notifier) HandlerOption {
	return func(h *Handler) { h.notifier = n }
}

// WithReadyTimeout bounds the store load performed by /ready.
func WithReadyTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.readyTimeout = d }
}

func NewHandler(store insights.Store, app config.AppConfig, log logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:        store,
		app:          app,
		logger:       log,
		errHandler:   errors.NewErrorHandler(log),
		readyTimeout: 5 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Message     string            `json:"message"`
	Version     string            `json:"version"`
	Status      string            `json:"status"`
	Endpoints   map[string]string `json:"endpoints"`
	Description string            `json:"description"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ReadyResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		errors.WriteDetail(w, http.StatusInternalServerError, errors.DetailInternal)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// generateETag hashes the body with FNV-1a.
func generateETag(data []byte) string {
	h := fnv.New32a()
	_, _ = h.Write(data)
	return strconv.Quote(strconv.FormatUint(uint64(h.Sum32()), 16))
}

// Insights serves the full collection or a {"detail"} error. Nothing is written until the
// collection has loaded and validated, so a failure never leaks partial data.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	requestID := chimiddleware.GetReqID(r.Context())

	collection, err := h.store.Load(r.Context())
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, requestID, err)
		h.notify(err)
		return
	}

	body, err := insights.Encode(collection)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, requestID, err)
		return
	}

	etag := generateETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("failed to write insights response", map[string]interface{}{
			"requestId": requestID,
			"error":     err,
		})
	}
}

func (h *Handler) notify(err error) {
	if h.notifier == nil || !stderrors.Is(err, errors.ErrDataUnavailable) {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if nerr := h.notifier.NotifyDataUnavailable(ctx, err); nerr != nil {
			h.logger.Warn("data unavailable alert failed", map[string]interface{}{"error": nerr})
		}
	}()
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, InfoResponse{
		Message: "HMS Analytics API",
		Version: h.app.Version,
		Status:  "running",
		Endpoints: map[string]string{
			"home":      PathHome,
			"insights":  PathInsights,
			"dashboard": PathDashboard,
			"health":    PathHealth,
			"ready":     PathReady,
			"metrics":   PathMetrics,
		},
		Description: h.app.Description,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Ready reports whether the store can currently produce a valid collection.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()

	if _, err := h.store.Load(ctx); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Detail: errors.PublicDetail(err),
		})
		return
	}
	respondJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}

// MethodNotAllowed answers 405. Every route is GET only.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	errors.WriteDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	errors.WriteDetail(w, http.StatusNotFound, "Not Found")
}
