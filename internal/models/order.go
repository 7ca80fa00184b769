package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPaid     OrderStatus = "paid"
	OrderFailed   OrderStatus = "failed"
	OrderRefunded OrderStatus = "refunded"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderPaid, OrderFailed, OrderRefunded:
		return true
	}
	return false
}

const (
	PaymentMethodStripe = "stripe"
	PaymentMethodPaypal = "paypal"
)

// OrderLine is one rented vehicle position on an order.
type OrderLine struct {
	VehicleID string `json:"vehicle_id"`
	Quantity  int    `json:"quantity"`
}

// PaymentInfo is the snapshot of the external processor's view of the
// payment, written by the webhook reconciler.
type PaymentInfo struct {
	Ref        string `bun:"ref,nullzero" json:"ref,omitempty"`
	RefStatus  string `bun:"ref_status,nullzero" json:"ref_status,omitempty"`
	ReceiptURL string `bun:"receipt_url,nullzero" json:"receipt_url,omitempty"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID         string      `bun:"order_id,pk" json:"order_id"`
	UserID          string      `bun:"user_id,notnull" json:"user_id"`
	Lines           []OrderLine `bun:"lines,type:jsonb" json:"lines"`
	TotalPrice      float64     `bun:"total_price,notnull" json:"total_price"`
	Currency        string      `bun:"currency,notnull" json:"currency"`
	Status          OrderStatus `bun:"status,notnull" json:"status"`
	PaymentMethod   string      `bun:"payment_method,notnull" json:"payment_method"`
	PaymentIntentID string      `bun:"payment_intent_id,nullzero" json:"payment_intent_id,omitempty"`
	PaymentInfo     PaymentInfo `bun:"embed:payment_" json:"payment_info"`
	CreatedAt       time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time   `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// OrderRequest is the checkout request body.
type OrderRequest struct {
	VehicleID     string `json:"vehicle_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"omitempty,gte=1"`
	Currency      string `json:"currency" validate:"omitempty,len=3"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=stripe paypal"`
}

type OrderResponse struct {
	Message           string `json:"message"`
	OrderID           string `json:"order_id"`
	ClientSecret      string `json:"client_secret"`
	NotificationError string `json:"notification_error,omitempty"`
	Debug             struct {
		PaymentIntentID string `json:"payment_intent_id"`
		Amount          int64  `json:"amount"`
	} `json:"debug"`
}

// OrderStatusView is the status-check response: the order plus diagnostic
// fields. GatewayStatus is read live from the processor and is never
// persisted from this path.
type OrderStatusView struct {
	Order *Order `json:"order"`
	Debug struct {
		PaymentIntentID string      `json:"payment_intent_id,omitempty"`
		GatewayStatus   string      `json:"gateway_status,omitempty"`
		CurrentStatus   OrderStatus `json:"current_status"`
		CreatedAt       time.Time   `json:"created_at"`
	} `json:"debug"`
}

type OrderStatusUpdateRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending paid failed refunded"`
}
