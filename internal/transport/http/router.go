package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pathfinder/internal/platform/middleware"
)

// NewRouter wires the tool-invocation endpoints behind bearer auth, plus the
// unauthenticated operational endpoints.
func NewRouter(h *Handler, auth *middleware.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/tools/requirements/status", h.handleUpdateStatus)
		r.Post("/tools/requirements/override", h.handleOverrideStatus)
		r.Post("/tools/scouts", h.handleAddScout)
		r.Get("/tools/scouts/{email}", h.handleGetScout)
		r.Post("/pipeline/run", h.handleRunPipeline)
	})

	return r
}
