package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"gba-rental/internal/models"
)

// ErrOrderNotFound is returned when an order id does not resolve.
var ErrOrderNotFound = errors.New("order not found")

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder → insert new order
func (d *DB) CreateOrder(order models.Order) error {
	_, err := d.Bun.NewInsert().Model(&order).Exec(context.Background())
	return err
}

// GetOrderByID → fetch one order by its ID
func (d *DB) GetOrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AttachPaymentIntent links the most recent payment intent to an order.
// Total price and status are deliberately left untouched.
func (d *DB) AttachPaymentIntent(orderID, intentID string) error {
	order := models.Order{
		OrderID:         orderID,
		PaymentIntentID: intentID,
		UpdatedAt:       time.Now(),
	}
	res, err := d.Bun.NewUpdate().
		Model(&order).
		Column("payment_intent_id", "updated_at").
		Where("order_id = ?", orderID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CommitPaymentResult applies a verified payment outcome: status plus the
// processor's payment-info snapshot, and optionally a (re-)attached intent
// id for the metadata-less test-event path. This is the only write path for
// payment outcomes; the diagnostic status check never calls it.
func (d *DB) CommitPaymentResult(orderID string, status models.OrderStatus, info models.PaymentInfo, intentID string) error {
	order := models.Order{
		OrderID:         orderID,
		Status:          status,
		PaymentInfo:     info,
		PaymentIntentID: intentID,
		UpdatedAt:       time.Now(),
	}
	columns := []string{"status", "payment_ref", "payment_ref_status", "payment_receipt_url", "updated_at"}
	if intentID != "" {
		columns = append(columns, "payment_intent_id")
	}
	res, err := d.Bun.NewUpdate().
		Model(&order).
		Column(columns...).
		Where("order_id = ?", orderID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateStatus is the manual admin path. Payment fields are untouched.
func (d *DB) UpdateStatus(orderID string, status models.OrderStatus) error {
	order := models.Order{
		OrderID:   orderID,
		Status:    status,
		UpdatedAt: time.Now(),
	}
	res, err := d.Bun.NewUpdate().
		Model(&order).
		Column("status", "updated_at").
		Where("order_id = ?", orderID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// LatestPendingOrder → most recently created order still pending. Used only
// by the webhook fallback for metadata-less provider test events.
func (d *DB) LatestPendingOrder() (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("status = ?", models.OrderPending).
		Order("created_at DESC").
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByUser → all orders for a given user, newest first
func (d *DB) ListOrdersByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAllOrders → every order, newest first (admin)
func (d *DB) ListAllOrders() ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
