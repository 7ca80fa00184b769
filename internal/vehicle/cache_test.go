package vehicle_test

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	"gba-rental/internal/vehicle"
)

// TestCacheIntegration exercises the catalog cache against a real Redis
// container.
func TestCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Could not start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	cache := vehicle.NewCache(client, 0, logger.NewLogger())

	// Miss before anything is stored.
	assert.Nil(t, cache.Get(ctx, "veh-1"))

	stored := &models.Vehicle{VehicleID: "veh-1", Brand: "Toyota", Model: "Corolla", Year: 2021, Price: 500}
	cache.Set(ctx, stored)

	got := cache.Get(ctx, "veh-1")
	require.NotNil(t, got)
	assert.Equal(t, "Toyota", got.Brand)
	assert.Equal(t, 500.0, got.Price)

	cache.Invalidate(ctx, "veh-1")
	assert.Nil(t, cache.Get(ctx, "veh-1"))

	// A corrupt entry is treated as a miss and cleaned up.
	require.NoError(t, client.Set(ctx, "vehicle:veh-2", "{not json", 0).Err())
	assert.Nil(t, cache.Get(ctx, "veh-2"))
	assert.Equal(t, redis.Nil, client.Get(ctx, "vehicle:veh-2").Err())
}

func TestCacheIsNilSafe(t *testing.T) {
	ctx := context.Background()

	var cache *vehicle.Cache
	assert.Nil(t, cache.Get(ctx, "veh-1"))
	cache.Set(ctx, &models.Vehicle{VehicleID: "veh-1"})
	cache.Invalidate(ctx, "veh-1")

	// A cache constructed without a client behaves the same way.
	disabled := vehicle.NewCache(nil, 0, logger.NewLogger())
	assert.Nil(t, disabled.Get(ctx, "veh-1"))
	disabled.Set(ctx, &models.Vehicle{VehicleID: "veh-1"})
	disabled.Invalidate(ctx, "veh-1")
}
