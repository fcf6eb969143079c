package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, secret string, claims jwtlib.RegisteredClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func identityRouter() *gin.Engine {
	r := gin.New()
	r.Use(Identity("test-secret", nil))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, "user=%s", UserID(c))
	})
	return r
}

func get(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityValidToken(t *testing.T) {
	token := sign(t, "test-secret", jwtlib.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	})

	w := get(identityRouter(), "/whoami", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user=user-42", w.Body.String())
}

func TestIdentityWithoutTokenIsDemo(t *testing.T) {
	w := get(identityRouter(), "/whoami", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user=", w.Body.String())
}

func TestIdentityRejectsBadTokens(t *testing.T) {
	cases := map[string]string{
		"wrong secret": "Bearer " + sign(t, "other", jwtlib.RegisteredClaims{Subject: "u"}),
		"expired": "Bearer " + sign(t, "test-secret", jwtlib.RegisteredClaims{
			Subject:   "u",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Minute)),
		}),
		"no subject": "Bearer " + sign(t, "test-secret", jwtlib.RegisteredClaims{}),
		"garbage":    "Bearer not-a-jwt",
		"basic auth": "Basic dXNlcjpwYXNz",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := get(identityRouter(), "/whoami", header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestInternalToken(t *testing.T) {
	r := gin.New()
	r.Use(InternalToken("s3cret", nil))
	r.GET("/internal", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, get(r, "/internal", "Bearer s3cret").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/internal", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/internal", "s3cret").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/internal", "Bearer nope").Code)

	disabled := gin.New()
	disabled.Use(InternalToken("", nil))
	disabled.GET("/internal", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusForbidden, get(disabled, "/internal", "Bearer ").Code)
}

func TestRateLimitPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	w := get(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.True(t, limiter.Allow("203.0.113.9"))
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, IdleAfter: time.Minute})
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(30 * time.Second)
	limiter.Allow("b")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, limiter.Cleanup())
	assert.Len(t, limiter.visitors, 1)
	assert.Contains(t, limiter.visitors, "b")
}

func TestLoggerAndMetricsPassThrough(t *testing.T) {
	r := gin.New()
	r.Use(Metrics(), Logger(nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	assert.Equal(t, http.StatusAccepted, get(r, "/ok", "").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/missing", "").Code)
}
