package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrResetTokenInvalid is returned when a recovery token is unknown, expired
// or already consumed.
var ErrResetTokenInvalid = errors.New("invalid or expired recovery token")

// ResetTokenStore keeps single-use password-recovery tokens in Redis with a
// TTL. The token value stands in for the recovery link the original system's
// auth provider mailed out.
type ResetTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResetTokenStore creates a ResetTokenStore.
func NewResetTokenStore(client *redis.Client, ttl time.Duration) *ResetTokenStore {
	return &ResetTokenStore{client: client, ttl: ttl}
}

func resetKey(token string) string {
	return "pwreset:" + token
}

// Issue creates a recovery token for the user.
func (s *ResetTokenStore) Issue(ctx context.Context, userID int64) (string, error) {
	token := uuid.New().String()
	err := s.client.Set(ctx, resetKey(token), strconv.FormatInt(userID, 10), s.ttl).Err()
	if err != nil {
		return "", fmt.Errorf("failed to store recovery token: %w", err)
	}
	return token, nil
}

// Consume validates a recovery token and deletes it, returning the user it
// was issued for. A token can be consumed at most once.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (int64, error) {
	val, err := s.client.GetDel(ctx, resetKey(token)).Result()
	if err == redis.Nil {
		return 0, ErrResetTokenInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read recovery token: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, ErrResetTokenInvalid
	}
	return userID, nil
}
