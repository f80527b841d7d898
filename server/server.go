// Package server exposes the dashboard engine over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spektr-org/civiclens/engine"
	"github.com/spektr-org/civiclens/source"
)

// maxFilterBody bounds a dashboard request body.
const maxFilterBody = 1 << 20

// Datasets is the loader surface the handlers use.
type Datasets interface {
	Get(ctx context.Context) (engine.Dataset, error)
	Reload(ctx context.Context) (engine.Dataset, error)
	Info() source.Info
}

// Handler wires dashboard endpoints to the engine.
type Handler struct {
	data     Datasets
	logger   *slog.Logger
	metrics  *Metrics
	gatherer prometheus.Gatherer
	options  []engine.Option
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger routes request and engine logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records request and recompute metrics and serves gatherer on
// /metrics.
func WithMetrics(m *Metrics, gatherer prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.metrics = m
		h.gatherer = gatherer
	}
}

// WithEngineOptions passes options to every engine.Execute call.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(h *Handler) {
		h.options = append(h.options, opts...)
	}
}

// New constructs a dashboard handler.
func New(data Datasets, opts ...Option) *Handler {
	h := &Handler{
		data:   data,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register mounts the dashboard endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Use(requestID)
	r.Use(recovery(h.logger))
	r.Use(accessLog(h.logger, h.metrics))

	r.Get("/healthz", h.handleHealth)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/dashboard", h.handleDashboard)
		r.Post("/dashboard/text", h.handleDashboardText)
		r.Post("/dashboard/tables", h.handleDashboardTables)
		r.Get("/options", h.handleOptions)
		r.Get("/schema", h.handleSchema)
		r.Post("/reload", h.handleReload)
	})
}

// Router returns a chi router with every endpoint mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// NewHTTPServer builds an HTTP server with the project's defaults.
func NewHTTPServer(addr string, handler http.Handler, readHeaderTimeout time.Duration) *http.Server {
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
