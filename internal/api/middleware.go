package api

import (
	"net/http"
	"strings"
	"time"

	"example.com/restaurant-pos/internal/api/handlers"
	"example.com/restaurant-pos/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey = "X-Request-ID"

	// ClaimsKey holds the verified token claims in the gin context
	ClaimsKey = "claims"
)

// TokenVerifier checks bearer tokens
type TokenVerifier interface {
	VerifyToken(token string) (*services.Claims, error)
}

// RequestIDMiddleware adds a request ID to the context
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(requestIDKey, requestID)
		c.Header(requestIDKey, requestID)

		c.Next()
	}
}

// CORSMiddleware handles CORS. An empty origin list or "*" allows any origin.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	anyOrigin := len(origins) == 0 || allowed["*"]

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case anyOrigin:
			c.Header("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// LoggingMiddleware logs API requests
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetString(requestIDKey)).
			Str("client_ip", c.ClientIP()).
			Msg("API request")
	}
}

// AuthMiddleware rejects requests without a valid bearer token
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handlers.WriteError(c, &handlers.Error{
				Message:    "Authorization header required",
				StatusCode: http.StatusUnauthorized,
				Code:       "UNAUTHORIZED",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			handlers.WriteError(c, &handlers.Error{
				Message:    "Invalid Authorization header format. Expected: 'Bearer {token}'",
				StatusCode: http.StatusUnauthorized,
				Code:       "UNAUTHORIZED",
			})
			return
		}

		claims, err := verifier.VerifyToken(parts[1])
		if err != nil {
			log.Warn().Str("request_id", c.GetString(requestIDKey)).Msg("Rejected bearer token")
			handlers.WriteError(c, err)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
