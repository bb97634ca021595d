package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/movledger/internal/adapter/http/handler"
	"github.com/iho/movledger/internal/adapter/http/middleware"
	"github.com/iho/movledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	MovementHandler  *handler.MovementHandler
	StatementHandler *handler.StatementHandler
	AccountHandler   *handler.AccountHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler

	// Optional.
	IdempotencyStore   usecase.IdempotencyStore
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins []string
	MetricsHandler     http.Handler
	Logger             *zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, logger).Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/by-number/{number}", cfg.AccountHandler.GetByNumber)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Patch("/{id}/status", cfg.AccountHandler.SetStatus)
			r.Get("/{id}/balance", cfg.MovementHandler.Balance)
			r.Get("/{id}/movements", cfg.MovementHandler.ListByAccount)
			r.Get("/{id}/verify", cfg.LedgerHandler.VerifyAccount)
		})

		// Movements
		r.Route("/movements", func(r chi.Router) {
			r.Post("/", cfg.MovementHandler.Create)
			r.Get("/{id}", cfg.MovementHandler.Get)
			r.Post("/{id}/reverse", cfg.MovementHandler.Reverse)
		})

		// Customers
		r.Route("/customers/{id}", func(r chi.Router) {
			r.Get("/accounts", cfg.AccountHandler.ListByCustomer)
			r.Get("/statement", cfg.StatementHandler.Generate)
		})

		r.Get("/ledger/verify", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
