package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/oyhutmarket/storefront/internal/app"
	"github.com/oyhutmarket/storefront/internal/availability"
	"github.com/oyhutmarket/storefront/internal/checkout"
)

// StatusMonitor is the availability surface exposed over HTTP.
type StatusMonitor interface {
	Status() availability.Status
	Recheck(ctx context.Context) bool
}

type StatusResponse struct {
	availability.Status
	Mode app.BrowsingMode `json:"mode"`
}

type StatusHandler struct {
	monitor StatusMonitor
}

func NewStatusHandler(monitor StatusMonitor) *StatusHandler {
	return &StatusHandler{monitor: monitor}
}

func (h *StatusHandler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.handleHealth)
	router.Get("/api/status", h.handleStatus)
	router.Post("/api/status/recheck", h.handleRecheck)
}

func (h *StatusHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *StatusHandler) response() StatusResponse {
	status := h.monitor.Status()
	mode := app.ModeChecking
	switch status.State {
	case availability.StateAvailable:
		mode = app.ModeLive
	case availability.StateUnavailable:
		mode = app.ModeStatic
	}
	return StatusResponse{Status: status, Mode: mode}
}

func (h *StatusHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.response())
}

func (h *StatusHandler) handleRecheck(w http.ResponseWriter, r *http.Request) {
	h.monitor.Recheck(r.Context())
	respondWithJSON(w, http.StatusOK, h.response())
}

// requestLogger writes one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(started)).
				Msg("http: request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// NewRouter mounts every storefront handler on a chi router.
func NewRouter(a *app.App) chi.Router {
	validate := checkout.NewValidator()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	NewStatusHandler(a.Monitor).RegisterRoutes(router)
	NewCatalogHandler(a.Catalog, validate).RegisterRoutes(router)
	NewCartHandler(a, a.Catalog, validate).RegisterRoutes(router)
	NewCheckoutHandler(a, validate).RegisterRoutes(router)
	NewOrderHandler(a.Tracker, a.Recent, validate).RegisterRoutes(router)
	router.Method(http.MethodGet, "/metrics", a.Metrics.Handler())

	return router
}
