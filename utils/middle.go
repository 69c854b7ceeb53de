package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

// AuthMiddleware verifies the Bearer token and sets user context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			Fail(c, http.StatusUnauthorized, ErrnoMissingAuthToken, "Please authenticate yourself to use this endpoint.", nil)
			return
		}
		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			Fail(c, http.StatusUnauthorized, ErrnoInvalidAuthToken, "Please authenticate yourself to use this endpoint.", nil)
			return
		}
		claims, err := VerifyToken(secret, tokenParts[1])
		if err != nil {
			Fail(c, http.StatusUnauthorized, ErrnoInvalidAuthToken, "Please authenticate yourself to use this endpoint.", nil)
			return
		}
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextUserID, claims.UserId)
		c.Next()
	}
}

// RateLimitMiddleware throttles requests with a shared token bucket.
// A non-positive limit disables throttling.
func RateLimitMiddleware(limit float64, burst int) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			Fail(c, http.StatusTooManyRequests, ErrnoTooManyRequests, "Too many requests.", nil)
			return
		}
		c.Next()
	}
}

// ReadOnlyMiddleware rejects every request reaching it when enabled.
func ReadOnlyMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if enabled {
			Fail(c, http.StatusMethodNotAllowed, ErrnoMethodNotAllowed, "The server is in read-only mode.", nil)
			return
		}
		c.Next()
	}
}
