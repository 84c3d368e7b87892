// File: internal/auth/blocklist.go
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"clinic_backend/internal/shared"
)

const blocklistKeyPrefix = "auth:blocklist:"

// InMemoryBlocklistService keeps revoked token IDs in process memory.
// Entries expire on their own once the token they belong to has expired,
// so the set never grows past the refresh-token horizon.
type InMemoryBlocklistService struct {
	cache  *cache.Cache
	logger *zap.Logger
}

// NewInMemoryBlocklistService creates an in-process token blocklist.
func NewInMemoryBlocklistService(logger *zap.Logger) *InMemoryBlocklistService {
	return &InMemoryBlocklistService{
		cache:  cache.New(cache.NoExpiration, 10*time.Minute),
		logger: logger,
	}
}

// AddToBlocklist marks a token ID as revoked until the token expires.
func (s *InMemoryBlocklistService) AddToBlocklist(_ context.Context, jti string, expiresAt time.Time) error {
	duration := time.Until(expiresAt)
	if duration <= 0 {
		// Already expired; nothing to revoke.
		return nil
	}
	s.cache.Set(jti, true, duration)
	s.logger.Debug("Token added to in-memory blocklist", zap.String("jti", jti), zap.Time("expiresAt", expiresAt))
	return nil
}

// IsBlocklisted reports whether a token ID has been revoked.
func (s *InMemoryBlocklistService) IsBlocklisted(_ context.Context, jti string) (bool, error) {
	_, found := s.cache.Get(jti)
	return found, nil
}

// RedisBlocklistService stores revoked token IDs in Redis so revocations
// survive restarts and are shared across instances.
type RedisBlocklistService struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBlocklistService creates a Redis-backed token blocklist.
func NewRedisBlocklistService(client *redis.Client, logger *zap.Logger) *RedisBlocklistService {
	return &RedisBlocklistService{client: client, logger: logger}
}

// AddToBlocklist marks a token ID as revoked until the token expires.
func (s *RedisBlocklistService) AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error {
	duration := time.Until(expiresAt)
	if duration <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blocklistKeyPrefix+jti, "1", duration).Err(); err != nil {
		s.logger.Error("Failed to add token to Redis blocklist", zap.Error(err), zap.String("jti", jti))
		return fmt.Errorf("could not blocklist token: %w", err)
	}
	return nil
}

// IsBlocklisted reports whether a token ID has been revoked.
func (s *RedisBlocklistService) IsBlocklisted(ctx context.Context, jti string) (bool, error) {
	count, err := s.client.Exists(ctx, blocklistKeyPrefix+jti).Result()
	if err != nil {
		s.logger.Error("Failed to check Redis blocklist", zap.Error(err), zap.String("jti", jti))
		return false, fmt.Errorf("could not check token blocklist: %w", err)
	}
	return count > 0, nil
}

// NewTokenBlocklist picks the Redis-backed blocklist when a Redis client
// is configured and falls back to the in-process one otherwise.
func NewTokenBlocklist(redisClient *redis.Client, logger *zap.Logger) shared.TokenBlocklist {
	if redisClient != nil {
		logger.Info("Using Redis-backed token blocklist")
		return NewRedisBlocklistService(redisClient, logger)
	}
	logger.Info("Using in-memory token blocklist")
	return NewInMemoryBlocklistService(logger)
}
