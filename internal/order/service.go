package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"

	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	vehicledb "gba-rental/internal/vehicle/db"
)

var (
	// ErrVehicleNotFound is returned when the requested vehicle id does not
	// resolve in the catalog.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrPaymentUpstream wraps payment-gateway failures surfaced to callers.
	ErrPaymentUpstream = errors.New("payment gateway error")
)

type DBLayer interface {
	CreateOrder(order models.Order) error
	GetOrderByID(id string) (*models.Order, error)
	AttachPaymentIntent(orderID, intentID string) error
	UpdateStatus(orderID string, status models.OrderStatus) error
	ListOrdersByUser(userID string) ([]models.Order, error)
	ListAllOrders() ([]models.Order, error)
}

type PaymentGateway interface {
	CreateIntent(amountMinorUnits int64, currency, orderID string) (*stripe.PaymentIntent, error)
	GetIntent(id string) (*stripe.PaymentIntent, error)
}

// VehicleLookup is the read-only slice of the catalog the order flow needs.
type VehicleLookup interface {
	GetVehicle(id string) (*models.Vehicle, error)
}

// NotificationPublisher queues best-effort notifications. Failures are
// reported back but must never abort the triggering operation.
type NotificationPublisher interface {
	NewOrder(order models.Order, vehicle *models.Vehicle) error
}

type OrderService struct {
	DB       DBLayer
	Gateway  PaymentGateway
	Vehicles VehicleLookup
	Notifier NotificationPublisher

	logger          *logger.Logger
	defaultCurrency string
}

func NewOrderService(db DBLayer, gateway PaymentGateway, vehicles VehicleLookup, notifier NotificationPublisher, log *logger.Logger, defaultCurrency string) *OrderService {
	return &OrderService{
		DB:              db,
		Gateway:         gateway,
		Vehicles:        vehicles,
		Notifier:        notifier,
		logger:          log,
		defaultCurrency: defaultCurrency,
	}
}

// MinorUnits converts a price into the gateway's minor-unit amount
// (two-decimal currency convention).
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateOrder runs the checkout flow: price the vehicle, persist a pending
// order, create a payment intent tagged with the order id, attach the
// intent, and queue the admin notification. A gateway failure leaves the
// pending order without an intent; nothing is rolled back.
func (s *OrderService) CreateOrder(userID string, req models.OrderRequest) (*models.OrderResponse, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	vehicle, err := s.Vehicles.GetVehicle(req.VehicleID)
	if err != nil {
		if errors.Is(err, vehicledb.ErrVehicleNotFound) {
			s.logger.Warn("ORDER", fmt.Sprintf("Order rejected, vehicle %s not found", req.VehicleID))
			return nil, ErrVehicleNotFound
		}
		s.logger.Error("ORDER", fmt.Sprintf("Vehicle lookup failed for %s: %v", req.VehicleID, err))
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrVehicleNotFound
	}

	totalPrice := vehicle.Price * float64(quantity)
	s.logger.Info("ORDER", fmt.Sprintf("Computed price for vehicle %s: %.2f x %d = %.2f", vehicle.VehicleID, vehicle.Price, quantity, totalPrice))

	order := models.Order{
		OrderID:       uuid.NewString(),
		UserID:        userID,
		Lines:         []models.OrderLine{{VehicleID: vehicle.VehicleID, Quantity: quantity}},
		TotalPrice:    totalPrice,
		Currency:      currency,
		Status:        models.OrderPending,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     time.Now(),
	}

	if err := s.DB.CreateOrder(order); err != nil {
		s.logger.Error("ORDER", fmt.Sprintf("Failed to persist order: %v", err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.logger.LogOrder("CREATE", order.OrderID, fmt.Sprintf("pending order persisted (%.2f %s)", totalPrice, currency))

	amountMinor := MinorUnits(totalPrice)
	intent, err := s.Gateway.CreateIntent(amountMinor, currency, order.OrderID)
	if err != nil {
		// Order stays pending with no intent attached; recoverable by a
		// follow-up checkout attempt or admin action.
		s.logger.Error("ORDER", fmt.Sprintf("Payment intent creation failed for order %s: %v", order.OrderID, err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentUpstream, err)
	}

	if err := s.DB.AttachPaymentIntent(order.OrderID, intent.ID); err != nil {
		s.logger.Error("ORDER", fmt.Sprintf("Failed to attach payment intent %s to order %s: %v", intent.ID, order.OrderID, err))
		return nil, fmt.Errorf("failed to attach payment intent: %w", err)
	}
	order.PaymentIntentID = intent.ID

	resp := &models.OrderResponse{
		Message:      "Order created successfully",
		OrderID:      order.OrderID,
		ClientSecret: intent.ClientSecret,
	}
	resp.Debug.PaymentIntentID = intent.ID
	resp.Debug.Amount = intent.Amount

	// Best effort: a notification failure never fails the checkout.
	if err := s.Notifier.NewOrder(order, vehicle); err != nil {
		s.logger.Warn("ORDER", fmt.Sprintf("Failed to queue new-order notification for %s: %v", order.OrderID, err))
		resp.NotificationError = "admin notification could not be queued"
	}

	return resp, nil
}

// GetOrder fetches a single order.
func (s *OrderService) GetOrder(id string) (*models.Order, error) {
	return s.DB.GetOrderByID(id)
}

// CheckOrderStatus returns the order together with diagnostic debug fields.
// When an intent is attached, the live gateway status is fetched for
// comparison only; this path never writes order state. Payment outcomes
// are committed exclusively by the webhook reconciler.
func (s *OrderService) CheckOrderStatus(id string) (*models.OrderStatusView, error) {
	order, err := s.DB.GetOrderByID(id)
	if err != nil {
		return nil, err
	}

	view := &models.OrderStatusView{Order: order}
	view.Debug.PaymentIntentID = order.PaymentIntentID
	view.Debug.CurrentStatus = order.Status
	view.Debug.CreatedAt = order.CreatedAt

	if order.PaymentIntentID != "" {
		intent, err := s.Gateway.GetIntent(order.PaymentIntentID)
		if err != nil {
			s.logger.Warn("ORDER", fmt.Sprintf("Gateway cross-check failed for order %s: %v", id, err))
		} else {
			view.Debug.GatewayStatus = string(intent.Status)
			if string(intent.Status) != string(order.Status) {
				s.logger.Info("ORDER", fmt.Sprintf("Status cross-check for order %s: db=%s gateway=%s", id, order.Status, intent.Status))
			}
		}
	}

	return view, nil
}

// ListOrdersByUser returns the caller's orders.
func (s *OrderService) ListOrdersByUser(userID string) ([]models.Order, error) {
	return s.DB.ListOrdersByUser(userID)
}

// ListAllOrders returns every order (admin).
func (s *OrderService) ListAllOrders() ([]models.Order, error) {
	return s.DB.ListAllOrders()
}

// UpdateOrderStatus is the manual admin path for advancing an order.
func (s *OrderService) UpdateOrderStatus(orderID string, status models.OrderStatus) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("unknown order status %q", status)
	}
	if err := s.DB.UpdateStatus(orderID, status); err != nil {
		return nil, err
	}
	s.logger.LogOrder("STATUS", orderID, fmt.Sprintf("status set to %s by admin", status))
	return s.DB.GetOrderByID(orderID)
}
