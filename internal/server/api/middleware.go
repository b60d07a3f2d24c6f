// Package api exposes the server's HTTP surface: authentication, posting
// with fan-out publication, post reads, the public feed, and media uploads.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postbridge/postbridge/internal/common"
	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/server/auth"
)

// accountIDKey is the gin context key the auth middleware stores the
// authenticated account id under.
const accountIDKey = "account_id"

// RequireAuth verifies the bearer token and stores the account id on the
// request context. Requests without a valid token are rejected with 401.
func RequireAuth(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader(common.AuthHeaderName))
		if !strings.HasPrefix(header, common.BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		id, err := auth.AccountIDFromToken(strings.TrimPrefix(header, common.BearerPrefix), secretKey)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, common.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(accountIDKey, id)
		c.Next()
	}
}

func accountID(c *gin.Context) string {
	return c.GetString(accountIDKey)
}

// requestLogger records one line per request after the handler has run.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
