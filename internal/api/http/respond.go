package http

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON error body shared by every route handler.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error writes {error, details} with the given status and records err on
// the Gin context so the access log carries it.
func Error(c *gin.Context, status int, msg string, err error) {
	body := ErrorResponse{Error: msg}
	if err != nil {
		body.Details = err.Error()
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}
