package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Vehicle struct {
	bun.BaseModel `bun:"table:vehicles"`

	VehicleID     string    `bun:"vehicle_id,pk" json:"vehicle_id"`
	VIN           string    `bun:"vin,nullzero" json:"vin,omitempty"`
	Brand         string    `bun:"brand,nullzero" json:"brand"`
	Model         string    `bun:"model,nullzero" json:"model"`
	Year          int       `bun:"year,nullzero" json:"year"`
	Drivetrain    string    `bun:"drivetrain,nullzero" json:"drivetrain,omitempty"`
	Engine        string    `bun:"engine,nullzero" json:"engine,omitempty"`
	Fuel          string    `bun:"fuel,nullzero" json:"fuel,omitempty"`
	Transmission  string    `bun:"transmission,nullzero" json:"transmission,omitempty"`
	ExteriorColor string    `bun:"exterior_color,nullzero" json:"exterior_color,omitempty"`
	Doors         int       `bun:"doors,nullzero" json:"doors,omitempty"`
	Seats         int       `bun:"seats,nullzero" json:"seats,omitempty"`
	Price         float64   `bun:"price,notnull" json:"price"`
	Miles         int       `bun:"miles,nullzero" json:"miles,omitempty"`
	Image         string    `bun:"image,nullzero" json:"image,omitempty"`
	Photos        []string  `bun:"photos,type:jsonb" json:"photos,omitempty"`
	Description   string    `bun:"description,nullzero" json:"description,omitempty"`
	Stock         int       `bun:"stock,notnull,default:1" json:"stock"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// VehicleRequest is the create/update body for catalog entries.
type VehicleRequest struct {
	VIN           string   `json:"vin" validate:"omitempty,len=17"`
	Brand         string   `json:"brand" validate:"required"`
	Model         string   `json:"model" validate:"required"`
	Year          int      `json:"year" validate:"omitempty,gte=1950,lte=2100"`
	Drivetrain    string   `json:"drivetrain"`
	Engine        string   `json:"engine"`
	Fuel          string   `json:"fuel"`
	Transmission  string   `json:"transmission"`
	ExteriorColor string   `json:"exterior_color"`
	Doors         int      `json:"doors"`
	Seats         int      `json:"seats"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	Miles         int      `json:"miles"`
	Image         string   `json:"image"`
	Photos        []string `json:"photos"`
	Description   string   `json:"description"`
	Stock         int      `json:"stock" validate:"omitempty,gte=0"`
}

// VehicleFilter narrows paginated catalog searches.
type VehicleFilter struct {
	Brand string
	Model string
	Year  int
	Page  int
	Limit int
}

type VehiclePage struct {
	Vehicles   []Vehicle `json:"vehicles"`
	Pagination struct {
		CurrentPage   int  `json:"current_page"`
		TotalPages    int  `json:"total_pages"`
		TotalVehicles int  `json:"total_vehicles"`
		HasNextPage   bool `json:"has_next_page"`
		HasPrevPage   bool `json:"has_prev_page"`
	} `json:"pagination"`
}
