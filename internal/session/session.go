// Package session maps opaque tokens to user ids. Tokens are random, carry
// no claims, and die on Destroy, so a stolen cookie stops working the moment
// the user logs out.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Store is the session collaborator consumed by the HTTP layer.
type Store interface {
	// Resolve returns the user id for a token, or ok=false for unknown or
	// expired tokens.
	Resolve(ctx context.Context, token string) (userID string, ok bool, err error)
	Create(ctx context.Context, userID string) (token string, err error)
	Destroy(ctx context.Context, token string) error
}

const keyPrefix = "session:%s"

// RedisStore keeps sessions in Redis with a TTL.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: redisClient, ttl: ttl}
}

func (s *RedisStore) Resolve(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	userID, err := s.redis.Get(ctx, fmt.Sprintf(keyPrefix, token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (s *RedisStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.redis.Set(ctx, fmt.Sprintf(keyPrefix, token), userID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	return s.redis.Del(ctx, fmt.Sprintf(keyPrefix, token)).Err()
}
