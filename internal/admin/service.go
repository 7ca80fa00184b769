package admin

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"gba-rental/internal/logger"
	"gba-rental/internal/models"
)

// BrandCount is one row of the dashboard's brand breakdown.
type BrandCount struct {
	Brand string `bun:"brand" json:"brand"`
	Count int    `bun:"count" json:"count"`
}

// DashboardStats is the aggregate snapshot the admin dashboard renders.
type DashboardStats struct {
	Clients        int            `json:"clients"`
	Vehicles       int            `json:"vehicles"`
	Orders         int            `json:"orders"`
	TotalPaidSales float64        `json:"total_paid_sales"`
	OrdersByStatus map[string]int `json:"orders_by_status"`
	TopBrands      []BrandCount   `json:"top_brands"`
}

// Service computes dashboard aggregates straight from the database.
type Service struct {
	Bun    *bun.DB
	logger *logger.Logger
}

func NewService(db *bun.DB, log *logger.Logger) *Service {
	return &Service{Bun: db, logger: log}
}

// Stats gathers the dashboard snapshot in one pass.
func (s *Service) Stats() (*DashboardStats, error) {
	ctx := context.Background()
	stats := &DashboardStats{OrdersByStatus: map[string]int{}}

	var err error
	if stats.Clients, err = s.Bun.NewSelect().Model((*models.User)(nil)).Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.Vehicles, err = s.Bun.NewSelect().Model((*models.Vehicle)(nil)).Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count vehicles: %w", err)
	}
	if stats.Orders, err = s.Bun.NewSelect().Model((*models.Order)(nil)).Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	err = s.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("COALESCE(SUM(total_price), 0)").
		Where("status = ?", models.OrderPaid).
		Scan(ctx, &stats.TotalPaidSales)
	if err != nil {
		return nil, fmt.Errorf("failed to sum paid sales: %w", err)
	}

	var statusRows []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	err = s.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("status, COUNT(*) AS count").
		GroupExpr("status").
		Scan(ctx, &statusRows)
	if err != nil {
		return nil, fmt.Errorf("failed to group orders by status: %w", err)
	}
	for _, row := range statusRows {
		stats.OrdersByStatus[row.Status] = row.Count
	}

	err = s.Bun.NewSelect().
		Model((*models.Vehicle)(nil)).
		ColumnExpr("brand, COUNT(*) AS count").
		GroupExpr("brand").
		OrderExpr("count DESC").
		Limit(10).
		Scan(ctx, &stats.TopBrands)
	if err != nil {
		return nil, fmt.Errorf("failed to rank brands: %w", err)
	}

	return stats, nil
}
