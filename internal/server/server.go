package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retryexec/retryexec/internal/api"
	"github.com/retryexec/retryexec/internal/core"
)

// NewRouter creates and configures the HTTP router with all service routes.
func NewRouter(backend core.Backend, logger *slog.Logger, cfgs ...Config) http.Handler {
	var cfg Config
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(api.Metrics)
	r.Use(api.ServiceHeaders)
	r.Use(api.RequestLogger(logger))
	r.Use(api.ValidateContentType)

	// Optional API key authentication
	if cfg.APIKey != "" {
		r.Use(api.KeyAuth(cfg.APIKey, "/metrics", "/v1/health"))
	}

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Create handlers
	executionHandler := api.NewExecutionHandler(backend)
	scheduleHandler := api.NewScheduleHandler(backend)
	queueHandler := api.NewQueueHandler(backend)
	systemHandler := api.NewSystemHandler(backend)

	// System endpoints
	r.Get("/v1/health", systemHandler.Health)

	// Execution endpoints
	r.Post("/v1/executions", executionHandler.Create)
	r.Get("/v1/executions", executionHandler.List)
	r.Get("/v1/executions/{id}", executionHandler.Get)
	r.Delete("/v1/executions/{id}", executionHandler.Cancel)
	r.Post("/v1/executions/{id}/rerun", executionHandler.Rerun)

	// Schedule endpoints
	r.Post("/v1/schedules", scheduleHandler.Create)
	r.Get("/v1/schedules", scheduleHandler.List)
	r.Delete("/v1/schedules/{name}", scheduleHandler.Delete)

	// Queue endpoints
	r.Get("/v1/queues", queueHandler.List)
	r.Get("/v1/queues/{name}", queueHandler.Stats)
	r.Post("/v1/queues/{name}/pause", queueHandler.Pause)
	r.Post("/v1/queues/{name}/resume", queueHandler.Resume)

	return r
}
