// Package http wires handlers and middleware into a single entry point.
//
// Router assembles everything: middleware is applied in a fixed order,
// handlers get only the Executor they need, and the composition lives here
// rather than scattered across main.go.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wallethub/ledger/internal/adapters/http/common"
	"github.com/wallethub/ledger/internal/adapters/http/handlers"
	"github.com/wallethub/ledger/internal/adapters/http/middleware"
)

// RouterConfig configures the router.
type RouterConfig struct {
	// Logger for middleware.
	Logger *slog.Logger
	// Pool is the database pool used for health checks.
	Pool *pgxpool.Pool
	// Redis is the fast-path limiter's backing client, used for health
	// checks. May be nil.
	Redis *redis.Client
	// NATS is the event bus connection, used for health checks. May be
	// nil.
	NATS *nats.Conn
	// Version is the running build's version string.
	Version string
	// BuildTime is the running build's timestamp.
	BuildTime string
	// Environment is one of development, staging, production.
	Environment string
	// AllowedOrigins restricts CORS in production.
	AllowedOrigins []string
	// AuthTokenValidator validates a bearer token into AuthClaims.
	AuthTokenValidator func(token string) (*middleware.AuthClaims, error)
}

// DefaultRouterConfig returns a development-suitable configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:         slog.Default(),
		Version:        "dev",
		BuildTime:      "unknown",
		Environment:    "development",
		AllowedOrigins: []string{"*"},
	}
}

// RouterBuilder builds a configured gin.Engine step by step.
type RouterBuilder struct {
	config   *RouterConfig
	executor handlers.Executor
}

// NewRouterBuilder creates a new builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{config: config}
}

// WithExecutor attaches the ledger executor backing every write and query
// route.
func (b *RouterBuilder) WithExecutor(executor handlers.Executor) *RouterBuilder {
	b.executor = executor
	return b
}

// Build assembles the configured gin.Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery must come first so a panic anywhere downstream is
	// still turned into a 500 response instead of killing the process.
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID, so every later middleware and handler can log and
	// respond with a correlation id.
	router.Use(middleware.RequestID())

	// 3. CORS
	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	// 4. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/health/detailed", "/live", "/ready", "/metrics"},
	}))

	// 5. Rate limiting (global, abuse protection — independent of the
	// ledger's own spend-ceiling authorization).
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// 6. Metrics
	router.Use(middleware.Metrics())

	// ============================================
	// Metrics Endpoint (no auth)
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Health Check Routes (no auth)
	// ============================================

	healthHandler := handlers.NewHealthHandler(
		b.config.Pool,
		b.config.Redis,
		b.config.NATS,
		b.config.Version,
		b.config.BuildTime,
	)
	healthHandler.RegisterRoutes(router)

	// ============================================
	// API v1 Routes (auth required on every one)
	// ============================================

	if b.executor != nil {
		ledgerHandler := handlers.NewLedgerHandler(b.executor)

		v1 := router.Group("/api/v1")
		v1.Use(middleware.Auth(&middleware.AuthConfig{
			TokenValidator: b.config.AuthTokenValidator,
		}))

		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:id/balance", ledgerHandler.GetBalance)
			wallets.GET("/:id/transactions", ledgerHandler.ListTransactions)
		}

		// Every route below moves money, so it carries the stricter,
		// per-caller write-operation rate limit on top of the global
		// one.
		writes := v1.Group("")
		writes.Use(middleware.WriteOperationRateLimit())
		{
			writes.POST("/transfers", ledgerHandler.Transfer)

			holds := writes.Group("/holds")
			holds.POST("", ledgerHandler.CreateHold)
			holds.POST("/:id/capture", ledgerHandler.CaptureHold)
			holds.POST("/:id/release", ledgerHandler.ReleaseHold)

			intents := writes.Group("/intents")
			intents.POST("", ledgerHandler.CreateIntent)
			intents.POST("/:id/pay", ledgerHandler.PayIntent)
			intents.POST("/:id/cancel", ledgerHandler.CancelIntent)

			writes.POST("/refunds", ledgerHandler.Refund)
		}
	}

	// ============================================
	// 404 Handler
	// ============================================

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "endpoint not found: " + c.Request.Method + " " + c.Request.URL.Path,
		})
	})

	return router
}

// NewRouter builds a router from config in one call.
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}
