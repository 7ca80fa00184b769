package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"gba-rental/internal/models"
	"gba-rental/internal/vehicle/db"
)

func setupTestDB(t *testing.T) *db.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Vehicle)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func sampleVehicle(id, brand, model string, year int) models.Vehicle {
	return models.Vehicle{
		VehicleID: id,
		Brand:     brand,
		Model:     model,
		Year:      year,
		Price:     100.0,
		Stock:     1,
		CreatedAt: time.Now(),
	}
}

func TestCreateAndGetVehicle(t *testing.T) {
	store := setupTestDB(t)

	v := sampleVehicle("veh-1", "Toyota", "Corolla", 2021)
	v.Photos = []string{"https://img.example/1.jpg"}
	require.NoError(t, store.CreateVehicle(v))

	got, err := store.GetVehicleByID("veh-1")
	require.NoError(t, err)
	assert.Equal(t, "Toyota", got.Brand)
	assert.Equal(t, []string{"https://img.example/1.jpg"}, got.Photos)

	_, err = store.GetVehicleByID("missing")
	assert.ErrorIs(t, err, db.ErrVehicleNotFound)
}

func TestSearchVehiclesFiltersAndPaginates(t *testing.T) {
	store := setupTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreateVehicle(sampleVehicle(fmt.Sprintf("toy-%d", i), "Toyota", "Corolla", 2020)))
	}
	require.NoError(t, store.CreateVehicle(sampleVehicle("bmw-1", "BMW", "X3", 2022)))

	page, err := store.SearchVehicles(models.VehicleFilter{Brand: "toyota", Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Vehicles, 2)
	assert.Equal(t, 5, page.Pagination.TotalVehicles)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPrevPage)

	page, err = store.SearchVehicles(models.VehicleFilter{Year: 2022})
	require.NoError(t, err)
	require.Len(t, page.Vehicles, 1)
	assert.Equal(t, "bmw-1", page.Vehicles[0].VehicleID)

	page, err = store.SearchVehicles(models.VehicleFilter{Brand: "Honda"})
	require.NoError(t, err)
	assert.Empty(t, page.Vehicles)
	assert.Equal(t, 0, page.Pagination.TotalVehicles)
}

func TestUpdateAndDeleteVehicle(t *testing.T) {
	store := setupTestDB(t)
	require.NoError(t, store.CreateVehicle(sampleVehicle("veh-1", "Toyota", "Corolla", 2021)))

	updated := sampleVehicle("veh-1", "Toyota", "Camry", 2022)
	updated.Price = 150.0
	require.NoError(t, store.UpdateVehicle(updated))

	got, err := store.GetVehicleByID("veh-1")
	require.NoError(t, err)
	assert.Equal(t, "Camry", got.Model)
	assert.Equal(t, 150.0, got.Price)

	require.NoError(t, store.DeleteVehicle("veh-1"))
	_, err = store.GetVehicleByID("veh-1")
	assert.ErrorIs(t, err, db.ErrVehicleNotFound)

	assert.ErrorIs(t, store.DeleteVehicle("veh-1"), db.ErrVehicleNotFound)
}

func TestBulkInsertAndClear(t *testing.T) {
	store := setupTestDB(t)

	batch := []models.Vehicle{
		sampleVehicle("veh-1", "Toyota", "Corolla", 2021),
		sampleVehicle("veh-2", "BMW", "X3", 2022),
	}
	require.NoError(t, store.BulkInsertVehicles(batch))
	require.NoError(t, store.BulkInsertVehicles(nil))

	count, err := store.CountVehicles()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	deleted, err := store.DeleteAllVehicles()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err = store.CountVehicles()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
