package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-inventory/internal/logger"
	"ms-inventory/internal/models"
)

const identityKeyPrefix = "identity:"

// IdentityCache keeps user-directory answers in Redis for a short TTL so the
// purchase path does not hit the user service on every request.
type IdentityCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewIdentityCache(client *redis.Client, ttl time.Duration) *IdentityCache {
	return &IdentityCache{Client: client, TTL: ttl}
}

func (c *IdentityCache) Get(ctx context.Context, userID string) (*models.Identity, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	payload, err := c.Client.Get(ctx, identityKeyPrefix+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity from Redis: %w", err)
	}

	var identity models.Identity
	if err := json.Unmarshal([]byte(payload), &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached identity: %w", err)
	}
	return &identity, nil
}

func (c *IdentityCache) Set(ctx context.Context, identity *models.Identity) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, identityKeyPrefix+identity.UserID, payload, c.TTL).Err()
}

// Invalidate drops a cached identity, e.g. after the user service reports a
// status change.
func (c *IdentityCache) Invalidate(ctx context.Context, userID string) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return c.Client.Del(ctx, identityKeyPrefix+userID).Err()
}

// InitializeIdentityCache sets up Redis for identity caching and tests the connection
func InitializeIdentityCache(redisAddr string, ttl time.Duration, customLogger *logger.Logger) (*IdentityCache, error) {
	logInfo := func(message string) {}
	logError := func(message string) {}
	if customLogger != nil {
		logInfo = func(message string) { customLogger.Info("AUTH", message) }
		logError = func(message string) { customLogger.Error("AUTH", message) }
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "", // no password
		DB:       0,  // use default DB
		PoolSize: 10, // connection pool size
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logError(fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
		return nil, err
	}

	logInfo(fmt.Sprintf("Connected to Redis at %s for identity caching", redisAddr))
	return NewIdentityCache(redisClient, ttl), nil
}
