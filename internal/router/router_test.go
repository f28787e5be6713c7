package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"project-field-api/internal/metrics"
)

// setupTestConfig creates a router config backed by an in-memory database
func setupTestConfig(basePath string, m *metrics.Metrics) Config {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}

	return Config{
		DB:        db,
		Logger:    zap.NewNop(),
		JWTSecret: "test-secret",
		BasePath:  basePath,
		Metrics:   m,
	}
}

func TestHealthEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, zap.NewNop())

	router := Setup(setupTestConfig("", m))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
	assert.Contains(t, w.Body.String(), "database")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, zap.NewNop())

	router := Setup(setupTestConfig("/api/fields", m))

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/fields/definitions"},
		{http.MethodGet, "/api/fields/projects/6f2d9a51-0000-0000-0000-000000000000/definitions"},
		{http.MethodGet, "/api/fields/boards/6f2d9a51-0000-0000-0000-000000000000/values"},
		{http.MethodPost, "/api/fields/usage/events"},
	}

	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s should require auth", rt.method, rt.path)
	}
}

// TestMetricsEndpoint_RootPath tests /metrics endpoint at root path
func TestMetricsEndpoint_RootPath(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, zap.NewNop())

	router := Setup(setupTestConfig("", m))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Expected status 200")

	contentType := w.Header().Get("Content-Type")
	assert.Contains(t, contentType, "text/plain", "Expected Content-Type to contain text/plain")

	body := w.Body.String()
	assert.NotEmpty(t, body, "Response body should not be empty")
	assert.Contains(t, body, "# HELP", "Response should contain Prometheus HELP comments")
	assert.Contains(t, body, "# TYPE", "Response should contain Prometheus TYPE comments")

	// Go runtime metrics always appear on the default registry
	assert.Contains(t, body, "go_goroutines", "Response should contain Go runtime metrics")
}

// TestMetricsEndpoint_NoAuthentication tests that /metrics does not require authentication
func TestMetricsEndpoint_NoAuthentication(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, zap.NewNop())

	router := Setup(setupTestConfig("", m))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Metrics endpoint should be accessible without authentication")
}

// TestMetricsEndpoint_WithBasePath tests /metrics endpoint with base path configured
func TestMetricsEndpoint_WithBasePath(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, zap.NewNop())

	basePath := "/api/fields"
	router := Setup(setupTestConfig(basePath, m))

	t.Run("root path /metrics works", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "Root /metrics should work")
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("base path /api/fields/metrics works", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, basePath+"/metrics", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "Base path /api/fields/metrics should work")
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	})
}

// TestMetricsEndpoint_ContainsAllMetrics tests that all expected metrics are exposed
func TestMetricsEndpoint_ContainsAllMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	_ = metrics.NewWithRegistry(registry, zap.NewNop())

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	metricNames := make(map[string]bool)
	for _, mf := range metricFamilies {
		metricNames[mf.GetName()] = true
	}

	// Gauges register at initialization; counters with no labels do too
	expectedGaugeMetrics := []string{
		"field_service_db_connections_open",
		"field_service_db_connections_in_use",
		"field_service_db_connections_idle",
		"field_service_db_connections_max",
		"field_service_definitions_total",
		"field_service_boards_total",
	}

	for _, metric := range expectedGaugeMetrics {
		assert.True(t, metricNames[metric], "Registry should contain metric: %s", metric)
	}

	expectedCounterMetrics := []string{
		"field_service_db_connection_wait_total",
		"field_service_db_connection_wait_duration_seconds_total",
		"field_service_definition_created_total",
		"field_service_usage_fallback_total",
	}

	for _, metric := range expectedCounterMetrics {
		assert.True(t, metricNames[metric], "Registry should contain metric: %s", metric)
	}
}

// TestMetricsEndpoint_PrometheusFormat tests Prometheus format validation
func TestMetricsEndpoint_PrometheusFormat(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, zap.NewNop())

	router := Setup(setupTestConfig("", m))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	lines := strings.Split(body, "\n")

	hasHelpLine := false
	hasTypeLine := false
	hasMetricLine := false

	for _, line := range lines {
		if strings.HasPrefix(line, "# HELP") {
			hasHelpLine = true
		}
		if strings.HasPrefix(line, "# TYPE") {
			hasTypeLine = true
		}
		if !strings.HasPrefix(line, "#") && strings.Contains(line, " ") && line != "" {
			hasMetricLine = true
		}
	}

	assert.True(t, hasHelpLine, "Should have at least one HELP line")
	assert.True(t, hasTypeLine, "Should have at least one TYPE line")
	assert.True(t, hasMetricLine, "Should have at least one metric line with value")
}
