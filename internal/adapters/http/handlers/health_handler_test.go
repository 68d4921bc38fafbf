package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_AlwaysReportsHealthy(t *testing.T) {
	handler := NewHealthHandler(nil, nil, nil, "1.2.3", "2026-01-01")

	router := gin.New()
	router.GET("/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestLive(t *testing.T) {
	handler := NewHealthHandler(nil, nil, nil, "1.2.3", "2026-01-01")

	router := gin.New()
	router.GET("/live", handler.Live)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}

func TestReady_NotConfiguredFailsReadiness(t *testing.T) {
	handler := NewHealthHandler(nil, nil, nil, "1.2.3", "2026-01-01")

	router := gin.New()
	router.GET("/ready", handler.Ready)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, "not configured", resp.Checks["database"])
	assert.Equal(t, "not configured", resp.Checks["redis"])
	assert.Equal(t, "not configured", resp.Checks["nats"])
}

func TestDetailedHealth_NoPoolConfigured(t *testing.T) {
	handler := NewHealthHandler(nil, nil, nil, "1.2.3", "2026-01-01")

	router := gin.New()
	router.GET("/health/detailed", handler.DetailedHealth)

	req := httptest.NewRequest(http.MethodGet, "/health/detailed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestRegisterRoutes(t *testing.T) {
	handler := NewHealthHandler(nil, nil, nil, "1.2.3", "2026-01-01")

	router := gin.New()
	handler.RegisterRoutes(router)

	for _, path := range []string{"/health", "/health/detailed", "/ready", "/live"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.NotEqual(t, http.StatusNotFound, w.Code, "expected %s to be registered", path)
	}
}
