package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gba-rental/internal/logger"
	"gba-rental/internal/models"
)

const (
	vehicleCacheKeyPrefix = "vehicle:"
	defaultCacheTTL       = 10 * time.Minute
)

// Cache keeps hot catalog entries in Redis. Misses and Redis outages fall
// through to the database; the cache is never authoritative.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl, logger: log}
}

// Get returns the cached vehicle, or nil on miss or Redis failure.
func (c *Cache) Get(ctx context.Context, id string) *models.Vehicle {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := c.client.Get(ctx, vehicleCacheKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Failed to read vehicle %s from cache: %v", id, err))
		return nil
	}

	var vehicle models.Vehicle
	if err := json.Unmarshal(data, &vehicle); err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Corrupt cache entry for vehicle %s: %v", id, err))
		c.client.Del(ctx, vehicleCacheKeyPrefix+id)
		return nil
	}
	return &vehicle
}

// Set stores a vehicle with a TTL. Failures are logged and ignored.
func (c *Cache) Set(ctx context.Context, vehicle *models.Vehicle) {
	if c == nil || c.client == nil || vehicle == nil {
		return
	}

	data, err := json.Marshal(vehicle)
	if err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Failed to marshal vehicle %s: %v", vehicle.VehicleID, err))
		return
	}
	if err := c.client.Set(ctx, vehicleCacheKeyPrefix+vehicle.VehicleID, data, c.ttl).Err(); err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Failed to cache vehicle %s: %v", vehicle.VehicleID, err))
	}
}

// Invalidate drops a cached vehicle after a write.
func (c *Cache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, vehicleCacheKeyPrefix+id).Err(); err != nil {
		c.logger.Warn("CACHE", fmt.Sprintf("Failed to invalidate vehicle %s: %v", id, err))
	}
}
