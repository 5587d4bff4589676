// SPDX-License-Identifier: MIT

// Package api implements the service's HTTP surface: the task endpoints,
// probes, metrics and the self-describing OpenAPI document.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/go-service-template/internal/api/middleware"
	"github.com/ManuGH/go-service-template/internal/config"
	"github.com/ManuGH/go-service-template/internal/health"
	"github.com/ManuGH/go-service-template/internal/log"
	"github.com/ManuGH/go-service-template/internal/tasks"
)

// Options wires the server's dependencies.
type Options struct {
	Settings *config.Settings
	Version  string
	Health   *health.Manager
	Tasks    tasks.Repository
}

// Server is the HTTP API server.
type Server struct {
	router      chi.Router
	settings    *config.Settings
	tasks       tasks.Repository
	openapiJSON []byte
}

// NewServer builds the router with the canonical middleware stack and all
// routes. It fails when the embedded OpenAPI document does not validate.
func NewServer(opts Options) (*Server, error) {
	openapiJSON, err := loadOpenAPIJSON()
	if err != nil {
		return nil, err
	}

	s := &Server{
		settings:    opts.Settings,
		tasks:       opts.Tasks,
		openapiJSON: openapiJSON,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS(opts.Settings.AllowedOrigins()))
	r.Use(middleware.Metrics())
	if opts.Settings.Telemetry.Enabled {
		r.Use(middleware.Tracing("http-server"))
	}
	r.Use(log.Middleware())
	r.Use(middleware.APIRateLimit())

	r.Get("/", s.handleRoot)
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.handleListTasks)
		r.Post("/", s.handleCreateTask)
		r.Get("/{id}", s.handleGetTask)
		r.Put("/{id}", s.handleUpdateTask)
		r.Delete("/{id}", s.handleDeleteTask)
	})
	r.Get("/healthz", opts.Health.ServeHealth)
	r.Get("/readyz", opts.Health.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/openapi.json", s.handleOpenAPI)

	s.router = r
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "Hello from go-service-template!",
		"environment": s.settings.Environment,
	})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.openapiJSON)
}
