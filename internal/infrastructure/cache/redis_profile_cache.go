package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/redis/go-redis/v9"
)

// RedisProfileCache implements ProfileStore using Redis. It is suitable for
// deployments where multiple instances should share resolved profiles.
type RedisProfileCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

const defaultProfileTTL = 24 * time.Hour

// NewRedisProfileCache creates a new Redis-backed profile cache
func NewRedisProfileCache(cfg RedisConfig) (*RedisProfileCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProfileCache{
		client:    client,
		keyPrefix: "identity:profile:",
		ttl:       defaultProfileTTL,
	}, nil
}

// NewRedisProfileCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisProfileCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisProfileCache {
	if keyPrefix == "" {
		keyPrefix = "identity:profile:"
	}
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &RedisProfileCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get retrieves a cached profile. A missing key returns (nil, nil).
func (c *RedisProfileCache) Get(ctx context.Context, serviceNo string) (*identity.Profile, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+serviceNo).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached profile: %w", err)
	}

	var profile identity.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &profile, nil
}

// Set stores a profile with the configured TTL
func (c *RedisProfileCache) Set(ctx context.Context, profile identity.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+profile.ServiceNo, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisProfileCache) Close() error {
	return c.client.Close()
}

// Ensure RedisProfileCache implements ProfileStore
var _ ProfileStore = (*RedisProfileCache)(nil)
