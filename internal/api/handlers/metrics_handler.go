package handlers

import (
	"net/http"
	"runtime"

	"example.com/restaurant-pos/internal/metrics"
	"example.com/restaurant-pos/internal/tracing"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker func() error

// MetricsHandler serves the in-process metrics and the health check
type MetricsHandler struct {
	metrics *metrics.Metrics
	tracer  tracing.Tracer
	checks  map[string]HealthChecker
}

// NewMetricsHandler creates a new metrics handler. checks are run on every health request.
func NewMetricsHandler(collector *metrics.Metrics, tracer tracing.Tracer, checks map[string]HealthChecker) *MetricsHandler {
	if tracer == nil {
		tracer = tracing.Disabled()
	}
	return &MetricsHandler{
		metrics: collector,
		tracer:  tracer,
		checks:  checks,
	}
}

// HandleGetMetrics returns all metrics
func (h *MetricsHandler) HandleGetMetrics(c *gin.Context) {
	txn := h.tracer.StartTransaction("get-metrics")
	defer h.tracer.EndTransaction(txn)

	h.metrics.SetGauge("goroutines", int64(runtime.NumGoroutine()))

	c.JSON(http.StatusOK, h.metrics.GetAllMetrics())
}

// HandleGetHealthCheck returns a simplified health status
func (h *MetricsHandler) HandleGetHealthCheck(c *gin.Context) {
	for name, check := range h.checks {
		h.metrics.SetHealth(name, check() == nil)
	}

	healthChecks := h.metrics.GetHealthChecks()

	healthy := true
	for _, status := range healthChecks {
		if !status {
			healthy = false
			break
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":  healthy,
		"details": healthChecks,
	})
}

// RegisterRoutes registers the handler's routes
func (h *MetricsHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/metrics", h.HandleGetMetrics)
	router.GET("/health", h.HandleGetHealthCheck)
}
