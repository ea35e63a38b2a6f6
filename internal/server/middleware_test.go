package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parkreserve/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/test", okHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLoggingMiddleware())
	router.GET("/test", okHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test?selected=a1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(0.001, 2, time.Minute)
	t.Cleanup(limiter.Stop)

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/test", okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(0.001, 1, time.Minute)
	t.Cleanup(limiter.Stop)

	router := gin.New()
	require.NoError(t, router.SetTrustedProxies(nil))
	router.Use(limiter.Middleware())
	router.GET("/test", okHandler)

	send := func(forwardedFor string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.2"))
}

func TestRateLimiter_StopEndsSweep(t *testing.T) {
	limiter := NewRateLimiter(1, 1, time.Minute)
	limiter.Stop()

	select {
	case <-limiter.stopped:
	case <-time.After(time.Second):
		t.Fatal("eviction loop still running after Stop")
	}

	limiter.Stop()
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1, time.Minute)
	t.Cleanup(limiter.Stop)

	limiter.Allow("198.51.100.7")
	limiter.evict(time.Now().Add(2 * time.Minute))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.clients)
}

func TestCorsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(corsMiddleware())
	router.GET("/test", okHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/test", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProviderRequire_CookieAndRevocation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb, mock := redismock.NewClientMock()
	provider := auth.NewProvider("test-secret", auth.NewRedisRevocations(rdb))

	router := gin.New()
	router.Use(provider.Require())
	router.GET("/me", func(c *gin.Context) {
		userID, _ := auth.GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	token, err := auth.GenerateAccessToken("user-1", "driver@example.com", "member", "test-secret")
	require.NoError(t, err)
	claims, err := auth.ValidateToken(token, "test-secret")
	require.NoError(t, err)

	request := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: token})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("cookie token accepted", func(t *testing.T) {
		mock.ExpectExists("auth:revoked:" + claims.ID).SetVal(0)

		w := request()
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-1")
	})

	t.Run("revoked token rejected", func(t *testing.T) {
		mock.ExpectExists("auth:revoked:" + claims.ID).SetVal(1)

		w := request()
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireRole_NonAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := auth.NewProvider("test-secret", nil)

	router := gin.New()
	router.Use(provider.Require(), auth.RequireRole("admin"))
	router.POST("/admin/lots", okHandler)

	token, err := auth.GenerateAccessToken("user-1", "driver@example.com", "member", "test-secret")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/admin/lots", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
