package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/server/response"
)

const userIDKey = "user_id"

var errNoSubject = errors.New("token has no subject")

// Identity resolves the caller from a bearer token signed by the identity
// provider. Requests without a token run as the demo user; a token that does
// not verify is rejected with 401.
func Identity(secret string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := jwtlib.NewParser(jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	key := []byte(secret)

	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Set(userIDKey, "")
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authorization header must be 'Bearer <token>'")
			return
		}

		sub, err := verify(parser, key, strings.TrimSpace(token))
		if err != nil {
			logger.Debug("rejected bearer token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.Abort(c, http.StatusUnauthorized, response.CodeInvalidToken, "Invalid or expired token")
			return
		}

		c.Set(userIDKey, sub)
		c.Next()
	}
}

func verify(parser *jwtlib.Parser, key []byte, token string) (string, error) {
	claims := &jwtlib.RegisteredClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return key, nil
	}); err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}

// UserID returns the identity set by Identity, "" for the demo user.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
