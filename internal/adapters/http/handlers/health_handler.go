package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// HealthHandler serves liveness/readiness probes. Readiness pings the store
// and, where they are configured, the fast-path limiter's Redis client and
// the event bus's NATS connection.
type HealthHandler struct {
	pool      *pgxpool.Pool
	redis     *redis.Client
	nats      *nats.Conn
	version   string
	buildTime string
	startTime time.Time
}

// NewHealthHandler builds a HealthHandler. redis and nats may be nil,
// in which case readiness simply reports them as not configured rather
// than failing.
func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client, natsConn *nats.Conn, version, buildTime string) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		redis:     redisClient,
		nats:      natsConn,
		version:   version,
		buildTime: buildTime,
		startTime: time.Now(),
	}
}

// HealthResponse is the liveness/basic-health response shape.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	BuildTime string            `json:"build_time"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessResponse is the readiness-probe response shape.
type ReadinessResponse struct {
	Ready     bool              `json:"ready"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// Health is a basic liveness probe — reports up regardless of
// dependency state, since restarting a process whose dependencies are
// down doesn't fix anything.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

// Live is the plainest possible liveness check, used when even the JSON
// marshaling in Health is unwanted overhead for a probe that fires every
// few seconds.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready checks every backing dependency and reports 503 if any required
// one is down, so the caller's load balancer stops sending it traffic.
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := make(map[string]string)
	allReady := true

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			allReady = false
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
		allReady = false
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			allReady = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	if h.nats != nil {
		if h.nats.Status() != nats.CONNECTED {
			checks["nats"] = "unhealthy: " + h.nats.Status().String()
			allReady = false
		} else {
			checks["nats"] = "healthy"
		}
	} else {
		checks["nats"] = "not configured"
	}

	status := http.StatusOK
	if !allReady {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, ReadinessResponse{
		Ready:     allReady,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}

// DetailedHealth reports connection-pool statistics alongside the basic
// checks, for operators diagnosing exhaustion rather than automation.
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pool.Ping(ctx); err != nil {
			checks["database"] = "unhealthy"
			status = "unhealthy"
		} else {
			stats := h.pool.Stat()
			checks["database"] = "healthy"
			checks["db_total_conns"] = strconv.Itoa(int(stats.TotalConns()))
			checks["db_idle_conns"] = strconv.Itoa(int(stats.IdleConns()))
			checks["db_acquired_conns"] = strconv.Itoa(int(stats.AcquiredConns()))
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

// RegisterRoutes registers the unauthenticated health/readiness/liveness
// routes directly on the engine, bypassing the versioned API group.
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/health/detailed", h.DetailedHealth)
	router.GET("/ready", h.Ready)
	router.GET("/live", h.Live)
}
