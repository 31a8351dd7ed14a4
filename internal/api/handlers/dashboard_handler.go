package handlers

import (
	"net/http"

	"example.com/restaurant-pos/internal/services"
	"example.com/restaurant-pos/internal/tracing"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the dashboard counters
type DashboardHandler struct {
	dashboard *services.DashboardService
	tracer    tracing.Tracer
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *services.DashboardService, tracer tracing.Tracer) *DashboardHandler {
	if tracer == nil {
		tracer = tracing.Disabled()
	}
	return &DashboardHandler{dashboard: dashboard, tracer: tracer}
}

// HandleGetDashboard returns order and revenue counters
func (h *DashboardHandler) HandleGetDashboard(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-dashboard")
	defer h.tracer.EndTransaction(txn)

	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RegisterRoutes registers the handler's routes
func (h *DashboardHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/dashboard", h.HandleGetDashboard)
}
