// Package container is the composition root: it builds every dependency
// exactly once (pool, store, limiter, publisher, executor, HTTP server)
// and owns their lifecycle from Initialize through Shutdown.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	httpadapter "github.com/wallethub/ledger/internal/adapters/http"
	"github.com/wallethub/ledger/internal/adapters/http/middleware"
	"github.com/wallethub/ledger/internal/config"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
	"github.com/wallethub/ledger/internal/infrastructure/eventbus"
	"github.com/wallethub/ledger/internal/infrastructure/persistence/postgres"
	"github.com/wallethub/ledger/internal/infrastructure/ratelimit"
	"github.com/wallethub/ledger/internal/ledger"
	"github.com/wallethub/ledger/internal/pkg/logger"
	"github.com/wallethub/ledger/internal/telemetry"
)

// Container owns every long-lived dependency the running process needs.
type Container struct {
	config *config.Config
	logger *slog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	nats  *nats.Conn

	store     *postgres.Store
	outbox    *postgres.OutboxStore
	publisher *eventbus.NATSPublisher
	limiter   *ratelimit.RedisLimiter

	executor *ledger.Executor
	sweeper  *ledger.HoldSweeper

	tracerShutdown telemetry.Shutdown
	httpServer     *httpadapter.Server
}

// New creates an uninitialized container for the given configuration.
func New(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

// Initialize wires every dependency in order: logging, telemetry, database,
// the fast-path limiter, the event bus, the ledger engine, then the HTTP
// server sitting on top of it.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		AddSource: c.config.Log.AddSource,
	})
	c.logger.Info("initializing ledger container")

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:       c.config.Telemetry.Enabled,
		OTLPEndpoint:  c.config.Telemetry.OTLPEndpoint,
		ServiceName:   c.config.Telemetry.ServiceName,
		ExportTimeout: c.config.Telemetry.ExportTimeout,
		SampleRatio:   c.config.Telemetry.SampleRatio,
		Insecure:      c.config.Telemetry.InsecureChannel,
	})
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	c.tracerShutdown = shutdown

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("database connected")

	c.initRedis()
	c.initNATS()

	if err := c.seedAPIKeys(ctx); err != nil {
		return fmt.Errorf("failed to seed api keys: %w", err)
	}

	c.initLedger()
	c.logger.Info("ledger engine initialized")

	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.logger.Info("container initialization complete")
	return nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	dbCfg := c.config.Database
	poolConfig, err := pgxpool.ParseConfig(dbCfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database url: %w", err)
	}

	poolConfig.MaxConns = dbCfg.MaxConnections
	poolConfig.MinConns = dbCfg.MinConnections
	poolConfig.MaxConnLifetime = dbCfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbCfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.pool = pool
	c.store = postgres.NewStore(pool)
	c.outbox = postgres.NewOutboxStore(pool)
	return nil
}

// initRedis connects the fast-path spend-ceiling limiter. A connection
// failure is logged but not fatal — the limiter is an optimization, not a
// correctness dependency, so the executor falls back to nil (authoritative
// check only) rather than refusing to start.
func (c *Container) initRedis() {
	opts := &redis.Options{
		Addr:     c.config.Redis.Address,
		Password: c.config.Redis.Password,
		DB:       c.config.Redis.DB,
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		c.logger.Warn("redis unavailable, spend-ceiling fast path disabled", slog.String("error", err.Error()))
		_ = client.Close()
		return
	}

	ceilings := make(map[ids.APIKeyID]valueobjects.Money)
	for _, seed := range c.config.Ledger.APIKeys {
		if seed.Ceiling == "" {
			continue
		}
		ceiling, err := parseSeedCeiling(seed)
		if err != nil {
			c.logger.Warn("skipping fast-path ceiling for api key", slog.String("api_key_id", seed.ID), slog.String("error", err.Error()))
			continue
		}
		ceilings[ids.APIKeyID(seed.ID)] = ceiling
	}

	c.redis = client
	c.limiter = ratelimit.NewRedisLimiter(client, ceilings)
}

// parseSeedCeiling turns a configured seed's decimal ceiling string and
// currency code into Money, shared by the fast-path limiter's ceiling map
// and the authoritative api_keys row the store persists.
func parseSeedCeiling(seed config.APIKeySeed) (valueobjects.Money, error) {
	currency, err := valueobjects.NewCurrency(seed.CeilingCurrency)
	if err != nil {
		return valueobjects.Money{}, fmt.Errorf("invalid ceiling currency: %w", err)
	}
	return valueobjects.ParseDecimal(seed.Ceiling, currency)
}

// initNATS connects the outbox drainer. Like Redis, a connection failure
// degrades rather than blocks startup: events queue in the outbox and
// drain once connectivity returns, since the executor only ever writes to
// the outbox inside its own transaction.
func (c *Container) initNATS() {
	conn, err := nats.Connect(c.config.NATS.URL)
	if err != nil {
		c.logger.Warn("nats unavailable, outbox will queue until a drainer connects", slog.String("error", err.Error()))
		return
	}
	c.nats = conn
	c.publisher = eventbus.NewNATSPublisher(conn, c.outbox, c.config.NATS.DrainBatch, c.config.NATS.DrainInterval, c.logger)
}

// seedAPIKeys upserts every operator-provisioned caller identity from
// config into the store. A seed whose wallet doesn't exist yet is logged
// and skipped rather than aborting startup — operators commonly seed keys
// before the corresponding wallet has been created through the API.
func (c *Container) seedAPIKeys(ctx context.Context) error {
	for _, seed := range c.config.Ledger.APIKeys {
		var ceiling *valueobjects.Money
		var window time.Duration
		if seed.Ceiling != "" {
			amount, err := parseSeedCeiling(seed)
			if err != nil {
				return fmt.Errorf("invalid ceiling for api key %s: %w", seed.ID, err)
			}
			ceiling = &amount
			window = seed.Window
		}

		if err := c.store.SeedAPIKey(ctx, ids.APIKeyID(seed.ID), ids.WalletID(seed.WalletID), seed.Scopes, ceiling, window); err != nil {
			c.logger.Warn("failed to seed api key, skipping", slog.String("api_key_id", seed.ID), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (c *Container) initLedger() {
	var limiter ledger.SpendLimiter
	if c.limiter != nil {
		limiter = c.limiter
	}
	c.executor = ledger.NewExecutor(c.store, c.outbox, limiter)

	if c.config.Ledger.SweepInterval > 0 {
		c.sweeper = ledger.NewHoldSweeper(c.executor, c.config.Ledger.SweepInterval, c.logger)
	}
}

func (c *Container) initHTTPServer() {
	var tokenValidator func(token string) (*middleware.AuthClaims, error)
	if c.config.Auth.JWTSecret != "" {
		tokenValidator = middleware.NewJWTTokenValidator(c.config.Auth.JWTSecret, c.config.Auth.JWTIssuer)
	}

	routerConfig := &httpadapter.RouterConfig{
		Logger:             c.logger,
		Pool:               c.pool,
		Redis:              c.redis,
		NATS:               c.nats,
		Version:            c.config.App.Version,
		BuildTime:          c.config.App.BuildTime,
		Environment:        c.config.App.Environment,
		AllowedOrigins:     c.config.CORS.AllowedOrigins,
		AuthTokenValidator: tokenValidator,
	}

	router := httpadapter.NewRouterBuilder(routerConfig).
		WithExecutor(c.executor).
		Build()

	serverConfig := &httpadapter.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            fmt.Sprintf("%d", c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = httpadapter.NewServer(serverConfig, router)
}

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config { return c.config }

// Logger returns the container's logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Pool returns the database connection pool.
func (c *Container) Pool() *pgxpool.Pool { return c.pool }

// Executor returns the ledger engine's entry point.
func (c *Container) Executor() *ledger.Executor { return c.executor }

// HTTPServer returns the HTTP server.
func (c *Container) HTTPServer() *httpadapter.Server { return c.httpServer }

// Run starts the event bus drainer and the optional hold sweeper in the
// background, then blocks serving HTTP until a shutdown signal arrives.
func (c *Container) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if c.publisher != nil {
		go c.publisher.Run(ctx)
	}
	if c.sweeper != nil {
		go c.sweeper.Run(ctx, func(ctx context.Context) ([]string, error) {
			return c.store.ListExpiredHoldIDs(ctx, 100)
		})
	}

	c.logger.Info("starting ledger API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	return c.httpServer.Run()
}

// Shutdown tears down every dependency in reverse order of acquisition.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("shutting down container")

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.tracerShutdown != nil {
		if err := c.tracerShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	if c.nats != nil {
		c.nats.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()
		select {
		case <-done:
			c.logger.Info("database connection closed")
		case <-ctx.Done():
			c.logger.Warn("database close timeout")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	c.logger.Info("container shutdown complete")
	return nil
}
