package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"gba-rental/internal/models"
)

// ErrVehicleNotFound is returned when a vehicle id does not resolve.
var ErrVehicleNotFound = errors.New("vehicle not found")

type DB struct {
	Bun *bun.DB
}

// ---------------- VEHICLES ----------------

// CreateVehicle → insert new catalog entry
func (d *DB) CreateVehicle(vehicle models.Vehicle) error {
	_, err := d.Bun.NewInsert().Model(&vehicle).Exec(context.Background())
	return err
}

// BulkInsertVehicles inserts imported inventory in one statement.
func (d *DB) BulkInsertVehicles(vehicles []models.Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&vehicles).Exec(context.Background())
	return err
}

// GetVehicleByID → fetch one vehicle by its ID
func (d *DB) GetVehicleByID(id string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := d.Bun.NewSelect().
		Model(&vehicle).
		Where("vehicle_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// SearchVehicles → filtered, paginated catalog page
func (d *DB) SearchVehicles(filter models.VehicleFilter) (*models.VehiclePage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	applyFilter := func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.Brand != "" {
			q = q.Where("LOWER(brand) = LOWER(?)", filter.Brand)
		}
		if filter.Model != "" {
			q = q.Where("LOWER(model) = LOWER(?)", filter.Model)
		}
		if filter.Year != 0 {
			q = q.Where("year = ?", filter.Year)
		}
		return q
	}

	total, err := applyFilter(d.Bun.NewSelect().Model((*models.Vehicle)(nil))).Count(context.Background())
	if err != nil {
		return nil, err
	}

	var vehicles []models.Vehicle
	err = applyFilter(d.Bun.NewSelect().Model(&vehicles)).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}

	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}

	result := &models.VehiclePage{Vehicles: vehicles}
	totalPages := (total + limit - 1) / limit
	result.Pagination.CurrentPage = page
	result.Pagination.TotalPages = totalPages
	result.Pagination.TotalVehicles = total
	result.Pagination.HasNextPage = page < totalPages
	result.Pagination.HasPrevPage = page > 1
	return result, nil
}

// UpdateVehicle → replace mutable fields of a catalog entry
func (d *DB) UpdateVehicle(vehicle models.Vehicle) error {
	vehicle.UpdatedAt = time.Now()
	res, err := d.Bun.NewUpdate().
		Model(&vehicle).
		ExcludeColumn("created_at").
		Where("vehicle_id = ?", vehicle.VehicleID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteVehicle → remove one catalog entry
func (d *DB) DeleteVehicle(id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Vehicle)(nil)).
		Where("vehicle_id = ?", id).
		Exec(context.Background())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteAllVehicles wipes the catalog before a fresh import (admin only).
func (d *DB) DeleteAllVehicles() (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Vehicle)(nil)).
		Where("1 = 1").
		Exec(context.Background())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountVehicles → total catalog size
func (d *DB) CountVehicles() (int, error) {
	return d.Bun.NewSelect().Model((*models.Vehicle)(nil)).Count(context.Background())
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVehicleNotFound
	}
	return nil
}
