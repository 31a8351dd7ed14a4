package handlers

import (
	"net/http"

	"example.com/restaurant-pos/internal/services"
	"example.com/restaurant-pos/internal/tracing"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles admin login
type AuthHandler struct {
	auth   *services.AuthService
	tracer tracing.Tracer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, tracer tracing.Tracer) *AuthHandler {
	if tracer == nil {
		tracer = tracing.Disabled()
	}
	return &AuthHandler{auth: auth, tracer: tracer}
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin exchanges credentials for a token
func (h *AuthHandler) HandleLogin(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-login")
	defer h.tracer.EndTransaction(txn)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || validateStruct(req) != nil {
		WriteError(c, NewValidationError("Invalid credentials"))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if services.IsKind(err, services.KindUnauthorized) {
			// Bad credentials are a client error, not a missing session.
			WriteError(c, NewValidationError("Invalid credentials"))
			return
		}
		h.tracer.RecordError(txn, err)
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "message": "Login successful"})
}

// HandleVerify confirms the bearer token; the auth middleware has already checked it
func (h *AuthHandler) HandleVerify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// RegisterPublicRoutes registers routes that need no token
func (h *AuthHandler) RegisterPublicRoutes(router gin.IRoutes) {
	router.POST("/auth/login", h.HandleLogin)
}

// RegisterRoutes registers routes behind the auth middleware
func (h *AuthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/auth/verify", h.HandleVerify)
}
