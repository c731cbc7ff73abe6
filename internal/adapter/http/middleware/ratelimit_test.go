package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trip-finance-ledger/internal/adapter/http/middleware"
	redisStore "trip-finance-ledger/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// userHeader lets tests pick the caller without a token service.
const userHeader = "X-Test-User"

func setupRateLimitRouter(store middleware.RateLimiterStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	rule := middleware.RateLimitRule{Limit: 3, Window: time.Minute}
	log := zerolog.Nop()

	r.Use(func(c *gin.Context) {
		if id, err := uuid.Parse(c.GetHeader(userHeader)); err == nil {
			c.Set(middleware.CtxUserID, id)
		}
		c.Next()
	})
	r.GET("/test", middleware.RateLimiter(store, "test", rule, log), func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}

func newRateLimitStore(t *testing.T) *redisStore.RateLimitStore {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisStore.NewRateLimitStore(client)
}

func get(router *gin.Engine, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/test", nil)
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	router := setupRateLimitRouter(newRateLimitStore(t))

	for i := 0; i < 3; i++ {
		w := get(router, "")
		assert.Equal(t, 200, w.Code, "request %d should succeed", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	router := setupRateLimitRouter(newRateLimitStore(t))

	// Use up the limit
	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, get(router, "").Code)
	}

	// 4th request should be blocked
	w := get(router, "")
	assert.Equal(t, 429, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_001")
}

func TestRateLimiter_CountsPerUser(t *testing.T) {
	router := setupRateLimitRouter(newRateLimitStore(t))
	userA, userB := uuid.NewString(), uuid.NewString()

	// User A uses up the limit
	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, get(router, userA).Code)
	}
	assert.Equal(t, 429, get(router, userA).Code)

	// User B and anonymous callers keep independent counters
	assert.Equal(t, 200, get(router, userB).Code)
	assert.Equal(t, 200, get(router, "").Code)
}

type brokenStore struct{}

func (brokenStore) Allow(context.Context, string, int64, time.Duration) (*redisStore.RateLimitResult, error) {
	return nil, errors.New("connection refused")
}

func TestRateLimiter_DegradesOnStoreError(t *testing.T) {
	router := setupRateLimitRouter(brokenStore{})

	for i := 0; i < 5; i++ {
		w := get(router, "")
		assert.Equal(t, 200, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestDefaultRateLimitRules(t *testing.T) {
	rules := middleware.DefaultRateLimitRules()
	assert.Equal(t, int64(60), rules["ledger_write"].Limit)
	assert.Equal(t, int64(120), rules["negotiation"].Limit)
	assert.Equal(t, int64(20), rules["interest"].Limit)
	assert.Equal(t, int64(300), rules["reads"].Limit)
	assert.Equal(t, int64(30), rules["admin"].Limit)
	for name, rule := range rules {
		assert.Equal(t, time.Minute, rule.Window, name)
	}
}
