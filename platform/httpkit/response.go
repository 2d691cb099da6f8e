// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"hemodilab_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// MessageResponse is returned by operations that have nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}

const msgInternalError = "Internal server error"

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Message sends a 200 OK response with a {"message": ...} body.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}

// HandleError maps domain errors to HTTP responses.
// Typed *apperr.Error values use their Kind to pick the status code.
// Anything else is an unexpected failure and answers 500 without leaking
// the cause. Returns true if an error was handled.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	_ = c.Error(err)

	if domainErr, ok := apperr.As(err); ok {
		message := domainErr.Message
		if domainErr.Kind == apperr.KindInternal || domainErr.Kind == apperr.KindUnknown {
			message = msgInternalError
		}
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   message,
			Details: domainErr.Details,
		})
		return true
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternalError})
	return true
}
