package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/supportform/internal/server/httpserver/handler"
	"github.com/yndnr/supportform/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Deps handler.Deps

	Logger *slog.Logger

	// Metrics receives request metrics and backs GET /metrics. Nil uses
	// the global registry.
	Metrics *metric.Registry

	// RateLimit is requests per second per client IP; zero disables it.
	RateLimit float64
	RateBurst int

	CORSOrigins []string
}

// NewRouter creates the HTTP router with all routes and middleware.
//
// Order: Recover -> RequestID -> CORS -> RateLimit -> Audit -> Handler.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metric.Global()
	}
	if cfg.Deps.Logger == nil {
		cfg.Deps.Logger = cfg.Logger
	}

	h := handler.New(cfg.Deps)

	middlewares := []Middleware{Recover(), RequestID(cfg.Logger)}
	if len(cfg.CORSOrigins) > 0 {
		middlewares = append(middlewares, CORS(cfg.CORSOrigins))
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	middlewares = append(middlewares, Audit(cfg.Metrics, h.Route))

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover()))
	mux.Handle("/", Chain(h, middlewares...))
	return mux
}
