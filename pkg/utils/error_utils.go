package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Standardized APIError response
type APIError struct {
	StatusCode int         `json:"-"`              // HTTP status code, not included in JSON response body for error itself
	Code       string      `json:"code,omitempty"` // Application-specific error code
	Message    string      `json:"message"`
	Details    string      `json:"details,omitempty"`
	Data       interface{} `json:"data,omitempty"` // Extra machine-readable context (e.g. capacity numbers)
}

// NewAPIError creates a new APIError instance
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// WithData attaches extra context to the error body.
func (e *APIError) WithData(data interface{}) *APIError {
	e.Data = data
	return e
}

// RespondWithError sends a standardized JSON error response
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort()
}

// Common Error Constants
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeCapacityExceeded    = "CAPACITY_EXCEEDED"
	ErrCodeInvalidOperation    = "INVALID_OPERATION"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeCorruptAuditData    = "CORRUPT_AUDIT_DATA"
)

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// RespondValidationFailed returns a standard validation error.
func RespondValidationFailed(c *gin.Context, details string) {
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, "Input validation failed", details))
}

// RespondInternalError hides the underlying error from the client.
func RespondInternalError(c *gin.Context, message string) {
	RespondWithError(c, NewAPIError(http.StatusInternalServerError, ErrCodeInternalServerError, message, "Internal error"))
}
