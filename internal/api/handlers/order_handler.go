package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"example.com/restaurant-pos/internal/services"
	"example.com/restaurant-pos/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OrderSearcher queries the order search index
type OrderSearcher interface {
	SearchOrders(ctx context.Context, text string, size int) ([]map[string]interface{}, error)
}

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orders   *services.OrderService
	searcher OrderSearcher
	tracer   tracing.Tracer
}

// NewOrderHandler creates a new order handler. searcher may be nil.
func NewOrderHandler(orders *services.OrderService, searcher OrderSearcher, tracer tracing.Tracer) *OrderHandler {
	if tracer == nil {
		tracer = tracing.Disabled()
	}
	return &OrderHandler{
		orders:   orders,
		searcher: searcher,
		tracer:   tracer,
	}
}

// OrderLineRequest is one requested line of an order
type OrderLineRequest struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

// CreateOrderRequest represents an incoming order
type CreateOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	Items        []OrderLineRequest `json:"items"`
	Discount     json.RawMessage    `json:"discount"`
}

// UpdateOrderRequest replaces the lines of an open order
type UpdateOrderRequest struct {
	Items    []OrderLineRequest `json:"items"`
	Discount json.RawMessage    `json:"discount"`
}

// StatusRequest carries a new order status
type StatusRequest struct {
	Status string `json:"status"`
}

// BillRequest carries the bill discount
type BillRequest struct {
	Discount json.RawMessage `json:"discount"`
}

// HandleCreateOrder creates an order
func (h *OrderHandler) HandleCreateOrder(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-order")
	defer h.tracer.EndTransaction(txn)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, NewValidationError("Invalid request body"))
		return
	}
	h.tracer.AddAttribute(txn, "lines", len(req.Items))

	created, err := h.orders.CreateOrder(c.Request.Context(), req.CustomerName, toLines(req.Items), parseDiscount(req.Discount))
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Order created successfully",
		"orderId":     created.OrderID,
		"orderNumber": created.OrderNumber,
	})
}

// HandleListOrders returns every order, newest first
func (h *OrderHandler) HandleListOrders(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-orders")
	defer h.tracer.EndTransaction(txn)

	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// HandleListPendingOrders returns pending and preparing orders, oldest first
func (h *OrderHandler) HandleListPendingOrders(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-pending-orders")
	defer h.tracer.EndTransaction(txn)

	orders, err := h.orders.ListPendingOrders(c.Request.Context())
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// HandleGetOrder returns one order with its lines
func (h *OrderHandler) HandleGetOrder(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-order")
	defer h.tracer.EndTransaction(txn)

	id, ok := pathID(c, "Order not found")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// HandleSetStatus changes the status of an order
func (h *OrderHandler) HandleSetStatus(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-set-order-status")
	defer h.tracer.EndTransaction(txn)

	id, ok := pathID(c, "Order not found")
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, NewValidationError("Status is required"))
		return
	}
	h.tracer.AddAttribute(txn, "status", req.Status)

	if err := h.orders.SetOrderStatus(c.Request.Context(), id, req.Status); err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully"})
}

// HandleUpdateOrder replaces the lines of an open order
func (h *OrderHandler) HandleUpdateOrder(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-order")
	defer h.tracer.EndTransaction(txn)

	id, ok := pathID(c, "Order not found")
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, NewValidationError("Invalid request body"))
		return
	}

	if err := h.orders.UpdateOrder(c.Request.Context(), id, toLines(req.Items), parseDiscount(req.Discount)); err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order updated successfully"})
}

// HandleGenerateBill bills an order once
func (h *OrderHandler) HandleGenerateBill(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-generate-bill")
	defer h.tracer.EndTransaction(txn)

	id, ok := pathID(c, "Order not found")
	if !ok {
		return
	}

	// An empty body bills without a discount.
	var req BillRequest
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		WriteError(c, NewValidationError("Invalid request body"))
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			log.Debug().Err(err).Uint("order_id", id).Msg("rejecting unreadable bill body")
			WriteError(c, NewValidationError("Invalid request body"))
			return
		}
	}

	order, err := h.orders.GenerateBill(c.Request.Context(), id, parseDiscount(req.Discount))
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Bill generated successfully",
		"order":   order,
	})
}

// HandleSearchOrders queries the order index
func (h *OrderHandler) HandleSearchOrders(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-search-orders")
	defer h.tracer.EndTransaction(txn)

	if h.searcher == nil {
		WriteError(c, ErrServiceUnavailable)
		return
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size <= 0 || size > 100 {
		size = 20
	}

	hits, err := h.searcher.SearchOrders(c.Request.Context(), strings.TrimSpace(c.Query("q")), size)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": hits, "count": len(hits)})
}

// RegisterRoutes registers the handler's routes
func (h *OrderHandler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/orders", h.HandleCreateOrder)
	router.GET("/orders", h.HandleListOrders)
	router.GET("/orders/pending", h.HandleListPendingOrders)
	router.GET("/orders/search", h.HandleSearchOrders)
	router.GET("/orders/:id", h.HandleGetOrder)
	router.PUT("/orders/:id/status", h.HandleSetStatus)
	router.PUT("/orders/:id", h.HandleUpdateOrder)
	router.POST("/orders/:id/bill", h.HandleGenerateBill)
}

func toLines(items []OrderLineRequest) []services.LineRequest {
	lines := make([]services.LineRequest, 0, len(items))
	for _, item := range items {
		lines = append(lines, services.LineRequest{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	return lines
}

// parseDiscount accepts a JSON number or numeric string. Anything else,
// including an absent field, counts as no discount.
func parseDiscount(raw json.RawMessage) decimal.Decimal {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		s = strings.TrimSpace(text)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// pathID parses the :id parameter. Non-numeric ids cannot exist, so they are reported as not found.
func pathID(c *gin.Context, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, strconv.IntSize)
	if err != nil || id == 0 {
		WriteError(c, &Error{Message: notFound, StatusCode: http.StatusNotFound, Code: "NOT_FOUND"})
		return 0, false
	}
	return uint(id), true
}
