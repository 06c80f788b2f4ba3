package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adamscao/certwatch/internal/tracker"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error codes
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeStorage      = "storage_error"
	CodeInternal     = "internal_error"
	CodeUnauthorized = "unauthorized"
)

// RespondError sends an error response
func RespondError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// RespondSuccess sends a success response
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondServiceError maps a tracker error onto a status code
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tracker.ErrValidation):
		RespondError(c, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, tracker.ErrNotFound):
		RespondError(c, http.StatusNotFound, CodeNotFound, "Host not found")
	case errors.Is(err, tracker.ErrStorage):
		RespondError(c, http.StatusServiceUnavailable, CodeStorage, "Storage temporarily unavailable, retry later")
	default:
		RespondError(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
	_ = c.Error(err)
}
