package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenDenylist records revoked session tokens in Redis. Tokens are
// stateless, so logout works by denying the presented token until the moment
// it would have expired anyway; entries self-expire with the token.
type TokenDenylist struct {
	client *redis.Client
}

// NewTokenDenylist creates a TokenDenylist on the given Redis client.
func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

func denylistKey(token string) string {
	return "denylist:" + token
}

// Revoke denies the token for ttl. A non-positive ttl means the token has
// already expired and nothing needs to be stored.
func (d *TokenDenylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denylistKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Revoked reports whether the token has been revoked.
func (d *TokenDenylist) Revoked(ctx context.Context, token string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
