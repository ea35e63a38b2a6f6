package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Empty header", "", http.StatusUnauthorized},
		{"Invalid format", "Token abc", http.StatusUnauthorized},
		{"Empty token", "Bearer ", http.StatusUnauthorized},
		{"Garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req := httptest.NewRequest("GET", "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			c.Request = req

			handler := AuthMiddleware("secret")
			handler(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	router.GET("/me", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)

		identity, err := NewProvider(testSecret, nil).CurrentIdentity(c.Request.Context())
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "email": identity.Email})
	})

	token, err := GenerateAccessToken("user-7", "seven@example.com", "member", testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "seven@example.com")
}

func TestAuthMiddleware_RejectsRefreshToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(testSecret))
	router.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	token, err := GenerateRefreshToken("user-7", "seven@example.com", "member", testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Access token required")
}

func TestOptionalMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := NewProvider(testSecret, nil)

	router := gin.New()
	router.Use(provider.Optional())
	router.GET("/page", func(c *gin.Context) {
		_, err := provider.CurrentIdentity(c.Request.Context())
		if errors.Is(err, ErrNotAuthenticated) {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, "signed-in")
	})

	t.Run("no token passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/page", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		token, err := GenerateAccessToken("user-1", "a@example.com", "member", testSecret)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/page", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "signed-in", w.Body.String())
	})
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		userRole       any
		requiredRole   string
		expectedStatus int
	}{
		{"Correct role", "admin", "admin", http.StatusOK},
		{"Missing role", nil, "admin", http.StatusUnauthorized},
		{"Wrong role type", 123, "admin", http.StatusUnauthorized},
		{"Insufficient role", "member", "admin", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.userRole != nil {
				c.Set("user_role", tt.userRole)
			}
			c.Request = httptest.NewRequest("GET", "/", nil)

			handler := RequireRole(tt.requiredRole)
			handler(c)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func testClaims(expires time.Time) *JWTClaims {
	return &JWTClaims{
		UserID:    "user-1",
		Email:     "a@example.com",
		Role:      "member",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "token-1",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
}

func TestProvider_CurrentIdentity(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no claims", func(t *testing.T) {
		_, err := NewProvider(testSecret, nil).CurrentIdentity(context.Background())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("active token", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectExists("auth:revoked:token-1").SetVal(0)

		ctx := WithClaims(context.Background(), testClaims(now.Add(10*time.Minute)))
		identity, err := NewProvider(testSecret, NewRedisRevocations(rdb)).CurrentIdentity(ctx)

		require.NoError(t, err)
		assert.Equal(t, "user-1", identity.UserID)
		assert.Equal(t, "a@example.com", identity.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("revoked token", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectExists("auth:revoked:token-1").SetVal(1)

		ctx := WithClaims(context.Background(), testClaims(now.Add(10*time.Minute)))
		_, err := NewProvider(testSecret, NewRedisRevocations(rdb)).CurrentIdentity(ctx)

		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("store failure is not an auth outcome", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectExists("auth:revoked:token-1").SetErr(errors.New("connection refused"))

		ctx := WithClaims(context.Background(), testClaims(now.Add(10*time.Minute)))
		_, err := NewProvider(testSecret, NewRedisRevocations(rdb)).CurrentIdentity(ctx)

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotAuthenticated)
	})
}

func TestProvider_SignOut(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("revokes until expiry", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectSet("auth:revoked:token-1", 1, 10*time.Minute).SetVal("OK")

		p := NewProvider(testSecret, NewRedisRevocations(rdb))
		p.now = func() time.Time { return now }

		ctx := WithClaims(context.Background(), testClaims(now.Add(10*time.Minute)))
		require.NoError(t, p.SignOut(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectSet("auth:revoked:token-1", 1, 10*time.Minute).SetErr(errors.New("readonly replica"))

		p := NewProvider(testSecret, NewRedisRevocations(rdb))
		p.now = func() time.Time { return now }

		ctx := WithClaims(context.Background(), testClaims(now.Add(10*time.Minute)))
		err := p.SignOut(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "readonly replica")
	})

	t.Run("no identity", func(t *testing.T) {
		err := NewProvider(testSecret, nil).SignOut(context.Background())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})
}
