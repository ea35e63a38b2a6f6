package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotAuthenticated means there is no signed-in identity on the request.
// It is an expected outcome, not a system failure.
var ErrNotAuthenticated = errors.New("not authenticated")

type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type claimsKey struct{}

func WithClaims(ctx context.Context, claims *JWTClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*JWTClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*JWTClaims)
	return claims, ok && claims != nil
}

// Revocations remembers signed-out token ids until the token would have
// expired anyway.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisRevocations struct {
	client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func revocationKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revocationKey(tokenID), 1, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Provider answers "who is the current user" from the claims attached to the
// request context, and signs users out by revoking their access token.
type Provider struct {
	secret      string
	revocations Revocations
	now         func() time.Time
}

// NewProvider builds a provider. A nil revocations store disables sign-out
// checks, which is what the stateless API middleware uses in tests.
func NewProvider(secret string, revocations Revocations) *Provider {
	return &Provider{
		secret:      secret,
		revocations: revocations,
		now:         time.Now,
	}
}

func (p *Provider) CurrentIdentity(ctx context.Context) (*Identity, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	revoked, err := p.isRevoked(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrNotAuthenticated
	}

	return &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return ErrNotAuthenticated
	}
	if p.revocations == nil {
		return nil
	}

	ttl := AccessTokenTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(p.now())
	}

	if err := p.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (p *Provider) isRevoked(ctx context.Context, claims *JWTClaims) (bool, error) {
	if p.revocations == nil || claims.ID == "" {
		return false, nil
	}
	return p.revocations.IsRevoked(ctx, claims.ID)
}
