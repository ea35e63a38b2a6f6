package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const AccessTokenCookie = "access_token"

var (
	errNoToken      = errors.New("authorization header required")
	errHeaderFormat = errors.New("invalid authorization header format")
	errEmptyToken   = errors.New("token is empty")
	errNeedsAccess  = errors.New("access token required")
	errTokenRevoked = errors.New("token revoked")
)

// AuthMiddleware rejects requests without a valid access token. It does not
// consult revocations; use Provider.Require for that.
func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return NewProvider(accessTokenSecret, nil).Require()
}

// Require aborts with 401 unless the request carries a valid, unrevoked
// access token in the Authorization header or the access_token cookie.
func (p *Provider) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := p.authenticate(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": unauthorizedMessage(err)})
			c.Abort()
			return
		}

		attach(c, claims)
		c.Next()
	}
}

// Optional attaches the identity when one is present and never aborts.
// Pages that must decide for themselves how to react to a missing identity
// sit behind this one.
func (p *Provider) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := p.authenticate(c); err == nil {
			attach(c, claims)
		}
		c.Next()
	}
}

func (p *Provider) authenticate(c *gin.Context) (*JWTClaims, error) {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		return nil, err
	}

	claims, err := ValidateToken(tokenString, p.secret)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != "access" {
		return nil, errNeedsAccess
	}

	revoked, err := p.isRevoked(c.Request.Context(), claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errTokenRevoked
	}

	return claims, nil
}

func tokenFromRequest(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
			return cookie, nil
		}
		return "", errNoToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
		return "", errHeaderFormat
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", errEmptyToken
	}

	return tokenString, nil
}

func attach(c *gin.Context, claims *JWTClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("user_email", claims.Email)
	c.Set("user_role", claims.Role)
	c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, errNoToken):
		return "Authorization header required"
	case errors.Is(err, errHeaderFormat):
		return "Invalid authorization header format"
	case errors.Is(err, errEmptyToken):
		return "Token is empty"
	case errors.Is(err, ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, errNeedsAccess):
		return "Access token required"
	case errors.Is(err, errTokenRevoked):
		return "Token revoked"
	default:
		return "Invalid or malformed token"
	}
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid role type"})
			c.Abort()
			return
		}

		if roleStr != requiredRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

// SetTokenCookie stores the access token for browser pages.
func SetTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, token, int(AccessTokenTTL.Seconds()), "/", "", false, true)
}

func ClearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", false, true)
}
