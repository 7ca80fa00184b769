package vehicle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gba-rental/internal/logger"
	"gba-rental/internal/models"
)

type DBLayer interface {
	CreateVehicle(vehicle models.Vehicle) error
	BulkInsertVehicles(vehicles []models.Vehicle) error
	GetVehicleByID(id string) (*models.Vehicle, error)
	SearchVehicles(filter models.VehicleFilter) (*models.VehiclePage, error)
	UpdateVehicle(vehicle models.Vehicle) error
	DeleteVehicle(id string) error
	DeleteAllVehicles() (int64, error)
	CountVehicles() (int, error)
}

type VehicleService struct {
	DB    DBLayer
	Cache *Cache

	logger *logger.Logger
}

func NewVehicleService(db DBLayer, cache *Cache, log *logger.Logger) *VehicleService {
	return &VehicleService{DB: db, Cache: cache, logger: log}
}

// GetVehicle reads through the cache.
func (s *VehicleService) GetVehicle(id string) (*models.Vehicle, error) {
	ctx := context.Background()

	if cached := s.Cache.Get(ctx, id); cached != nil {
		return cached, nil
	}

	vehicle, err := s.DB.GetVehicleByID(id)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, vehicle)
	return vehicle, nil
}

// SearchVehicles returns a filtered catalog page straight from the
// database. List pages are not cached; only single entries are.
func (s *VehicleService) SearchVehicles(filter models.VehicleFilter) (*models.VehiclePage, error) {
	return s.DB.SearchVehicles(filter)
}

// CreateVehicle adds a catalog entry (admin).
func (s *VehicleService) CreateVehicle(req models.VehicleRequest) (*models.Vehicle, error) {
	vehicle := vehicleFromRequest(req)
	vehicle.VehicleID = uuid.NewString()
	vehicle.CreatedAt = time.Now()
	if vehicle.Stock == 0 {
		vehicle.Stock = 1
	}

	if err := s.DB.CreateVehicle(vehicle); err != nil {
		s.logger.Error("VEHICLE", fmt.Sprintf("Failed to create vehicle: %v", err))
		return nil, err
	}
	s.logger.Info("VEHICLE", fmt.Sprintf("Created vehicle %s (%s %s)", vehicle.VehicleID, vehicle.Brand, vehicle.Model))
	return &vehicle, nil
}

// UpdateVehicle replaces a catalog entry and drops its cache key (admin).
func (s *VehicleService) UpdateVehicle(id string, req models.VehicleRequest) (*models.Vehicle, error) {
	vehicle := vehicleFromRequest(req)
	vehicle.VehicleID = id

	if err := s.DB.UpdateVehicle(vehicle); err != nil {
		return nil, err
	}
	s.Cache.Invalidate(context.Background(), id)
	return s.DB.GetVehicleByID(id)
}

// DeleteVehicle removes a catalog entry and drops its cache key (admin).
func (s *VehicleService) DeleteVehicle(id string) error {
	if err := s.DB.DeleteVehicle(id); err != nil {
		return err
	}
	s.Cache.Invalidate(context.Background(), id)
	s.logger.Info("VEHICLE", fmt.Sprintf("Deleted vehicle %s", id))
	return nil
}

// ClearCatalog deletes every vehicle ahead of a re-import (admin).
// Cached single entries are left to expire by TTL.
func (s *VehicleService) ClearCatalog() (int64, error) {
	deleted, err := s.DB.DeleteAllVehicles()
	if err != nil {
		return 0, err
	}
	s.logger.Warn("VEHICLE", fmt.Sprintf("Catalog cleared, %d vehicles removed", deleted))
	return deleted, nil
}

func vehicleFromRequest(req models.VehicleRequest) models.Vehicle {
	return models.Vehicle{
		VIN:           req.VIN,
		Brand:         req.Brand,
		Model:         req.Model,
		Year:          req.Year,
		Drivetrain:    req.Drivetrain,
		Engine:        req.Engine,
		Fuel:          req.Fuel,
		Transmission:  req.Transmission,
		ExteriorColor: req.ExteriorColor,
		Doors:         req.Doors,
		Seats:         req.Seats,
		Price:         req.Price,
		Miles:         req.Miles,
		Image:         req.Image,
		Photos:        req.Photos,
		Description:   req.Description,
		Stock:         req.Stock,
	}
}
