package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error numbers carried in error bodies.
const (
	ErrnoMissingAuthToken  = 104
	ErrnoInvalidAuthToken  = 105
	ErrnoInvalidParameters = 107
	ErrnoInvalidResourceID = 110
	ErrnoMethodNotAllowed  = 115
	ErrnoTooManyRequests   = 117
	ErrnoConflict          = 122
	ErrnoUndefined         = 999
)

// Fail writes the standard error body and aborts the chain.
func Fail(c *gin.Context, status, errno int, message string, details interface{}) {
	body := gin.H{
		"code":    status,
		"errno":   errno,
		"error":   http.StatusText(status),
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.AbortWithStatusJSON(status, body)
}
