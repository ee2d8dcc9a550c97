// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication backed by the hosted
// identity provider. The verified uid and email are stored in the Gin
// context under "userID" and "userEmail" for handlers and the rate limiter.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pettyapp/go-petty-backend/internal/identity"
)

// Auth returns a Gin middleware that verifies the Authorization bearer token
// and aborts with 401 when verification fails. Place after RequestID so the
// error body carries the correlation ID.
func Auth(v identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		id, err := v.Verify(c.Request.Context(), token)
		// Chat membership and favorites are keyed by email; an identity
		// without one must not reach the handlers.
		if err != nil || id.Email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthenticated",
				"message":    "missing or invalid credentials",
			})
			return
		}
		c.Set("userID", id.UID)
		c.Set("userEmail", id.Email)
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, returning "" when the scheme does not match.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
