package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/server/response"
)

// InternalToken protects internal endpoints using a static bearer token.
// An empty expected token disables the endpoints.
func InternalToken(expected string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if expected == "" {
			logAuthFailure(logger, c, http.StatusForbidden, "disabled")
			response.Abort(c, http.StatusForbidden, response.CodeForbidden, "Internal endpoints are disabled")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logAuthFailure(logger, c, http.StatusUnauthorized, "missing_auth")
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logAuthFailure(logger, c, http.StatusUnauthorized, "invalid_auth_format")
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authorization header must be 'Bearer <token>'")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) != 1 {
			logAuthFailure(logger, c, http.StatusForbidden, "invalid_token")
			response.Abort(c, http.StatusForbidden, response.CodeForbidden, "Invalid internal token")
			return
		}

		c.Next()
	}
}

func logAuthFailure(logger *zap.Logger, c *gin.Context, status int, reason string) {
	logger.Warn("internal auth failed",
		zap.Int("status", status),
		zap.String("request_id", c.GetHeader("X-Request-ID")),
		zap.String("reason", reason),
		zap.String("client_ip", c.ClientIP()))
}
