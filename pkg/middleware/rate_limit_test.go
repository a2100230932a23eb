package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2))
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, "GET", "/ok").Code)
	require.Equal(t, http.StatusOK, serve(r, "GET", "/ok").Code)
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, "GET", "/limited").Code)

	w := serve(r, "GET", "/limited")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))
	require.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())

	// 2 rps refills one token in 500ms
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, serve(r, "GET", "/limited").Code)
}

func TestRateLimitMiddleware_KeysOnCurrentUser(t *testing.T) {
	alice := &models.User{ID: primitive.NewObjectID()}
	bob := &models.User{ID: primitive.NewObjectID()}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-User") == "bob" {
			SetCurrentUser(c, bob)
		} else {
			SetCurrentUser(c, alice)
		}
		c.Next()
	})
	r.Use(RateLimitMiddleware(0.1, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, "GET", "/u").Code)
	require.Equal(t, http.StatusTooManyRequests, serve(r, "GET", "/u").Code)

	// same client IP, different user, separate bucket
	req := httptest.NewRequest("GET", "/u", nil)
	req.Header.Set("X-User", "bob")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
