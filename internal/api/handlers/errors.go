package handlers

import (
	"net/http"

	"example.com/restaurant-pos/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest     = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrInternalServer     = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrUnauthorized       = &Error{Message: "Unauthorized", StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}
	ErrServiceUnavailable = &Error{Message: "Search is not configured", StatusCode: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE"}
)

var kindStatus = map[services.Kind]*Error{
	services.KindValidation:    {StatusCode: http.StatusBadRequest, Code: "VALIDATION_ERROR"},
	services.KindNotFound:      {StatusCode: http.StatusNotFound, Code: "NOT_FOUND"},
	services.KindItemNotFound:  {StatusCode: http.StatusNotFound, Code: "ITEM_NOT_FOUND"},
	services.KindAlreadyBilled: {StatusCode: http.StatusConflict, Code: "ALREADY_BILLED"},
	services.KindInvalidState:  {StatusCode: http.StatusConflict, Code: "INVALID_STATE"},
	services.KindInvalidStatus: {StatusCode: http.StatusBadRequest, Code: "INVALID_STATUS"},
	services.KindUnauthorized:  {StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"},
}

// NewValidationError creates a new validation error with a custom message
func NewValidationError(message string) *Error {
	return &Error{
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
	}
}

// toAPIError maps service errors onto HTTP errors. Storage failures and
// unknown errors become an opaque INTERNAL_ERROR.
func toAPIError(err error) *Error {
	var apiError *Error
	if errors.As(err, &apiError) {
		return apiError
	}

	var serviceErr *services.Error
	if errors.As(err, &serviceErr) {
		if mapped, ok := kindStatus[serviceErr.Kind]; ok {
			return &Error{Message: serviceErr.Message, StatusCode: mapped.StatusCode, Code: mapped.Code}
		}
	}
	return ErrInternalServer
}

// WriteError writes an error response and aborts the request
func WriteError(c *gin.Context, err error) {
	apiError := toAPIError(err)
	if apiError.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(err).AnErr("cause", errors.Unwrap(err)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
	}
	c.AbortWithStatusJSON(apiError.StatusCode, ErrorResponse{
		Message: apiError.Message,
		Code:    apiError.Code,
	})
}
