package middleware

import (
	"net/http"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/campusnet/campusnet/backend/go-services/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimitMiddleware_Basic(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	rejected := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("redis"))

	r := gin.New()
	r.Use(RedisRateLimitMiddleware(client, 1, 0, time.Second))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w1 := serve(r, "GET", "/r")
	w2 := serve(r, "GET", "/r")
	if w2.Code == http.StatusOK {
		// the first two requests straddled a window boundary
		w2 = serve(r, "GET", "/r")
	}
	require.Equal(t, http.StatusOK, w1.Code)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, rejected+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("redis")))

	keys := m.Keys()
	require.NotEmpty(t, keys)
	require.Contains(t, keys[0], "rl:ip:")
	require.Greater(t, m.TTL(keys[0]), time.Duration(0))
}

func TestRedisRateLimitMiddleware_NextWindowAllows(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	r := gin.New()
	r.Use(RedisRateLimitMiddleware(client, 1, 0, time.Second))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	serve(r, "GET", "/r")
	serve(r, "GET", "/r")
	time.Sleep(1100 * time.Millisecond)
	require.Equal(t, http.StatusOK, serve(r, "GET", "/r").Code)
}

func TestRedisRateLimitMiddleware_NilClientFallsBackToMemory(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	r := gin.New()
	r.Use(RedisRateLimitMiddleware(nil, 5, 1, time.Second))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, "GET", "/r").Code)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}
