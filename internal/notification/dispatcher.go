package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"gba-rental/internal/logger"
	"gba-rental/internal/models"
)

// Publisher is the queue the dispatcher writes events to.
type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

// Dispatcher turns domain events into queued notification messages. All
// methods are fire-and-forget from the caller's point of view; delivery
// is the worker's job.
type Dispatcher struct {
	producer   Publisher
	topic      string
	adminEmail string
	logger     *logger.Logger
}

func NewDispatcher(producer Publisher, topic, adminEmail string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		producer:   producer,
		topic:      topic,
		adminEmail: adminEmail,
		logger:     log,
	}
}

// Welcome queues the post-registration email.
func (d *Dispatcher) Welcome(user models.User) error {
	return d.publish(models.NotificationEvent{
		Type:   models.NotifyWelcome,
		To:     user.Email,
		UserID: user.UserID,
		Data: map[string]string{
			"name": user.Name,
		},
	})
}

// NewOrder alerts the admin inbox that a checkout happened.
func (d *Dispatcher) NewOrder(order models.Order, vehicle *models.Vehicle) error {
	if d.adminEmail == "" {
		d.logger.Warn("NOTIFY", "ADMIN_EMAIL not configured, skipping new-order notification")
		return nil
	}
	return d.publish(models.NotificationEvent{
		Type:    models.NotifyNewOrder,
		To:      d.adminEmail,
		OrderID: order.OrderID,
		UserID:  order.UserID,
		Data: map[string]string{
			"vehicle": fmt.Sprintf("%s %s %d", vehicle.Brand, vehicle.Model, vehicle.Year),
			"total":   fmt.Sprintf("%.2f %s", order.TotalPrice, order.Currency),
		},
	})
}

// OrderApproved tells the customer their rental is confirmed.
func (d *Dispatcher) OrderApproved(order models.Order, user models.User) error {
	return d.publish(models.NotificationEvent{
		Type:    models.NotifyOrderApproved,
		To:      user.Email,
		OrderID: order.OrderID,
		UserID:  user.UserID,
		Data: map[string]string{
			"name":  user.Name,
			"total": fmt.Sprintf("%.2f %s", order.TotalPrice, order.Currency),
		},
	})
}

// OrderRejected tells the customer their rental was declined.
func (d *Dispatcher) OrderRejected(order models.Order, user models.User) error {
	return d.publish(models.NotificationEvent{
		Type:    models.NotifyOrderRejected,
		To:      user.Email,
		OrderID: order.OrderID,
		UserID:  user.UserID,
		Data: map[string]string{
			"name": user.Name,
		},
	})
}

// PaymentReminder nudges the customer about an unpaid order.
func (d *Dispatcher) PaymentReminder(order models.Order, user models.User) error {
	return d.publish(models.NotificationEvent{
		Type:    models.NotifyPaymentReminder,
		To:      user.Email,
		OrderID: order.OrderID,
		UserID:  user.UserID,
		Data: map[string]string{
			"name":  user.Name,
			"total": fmt.Sprintf("%.2f %s", order.TotalPrice, order.Currency),
		},
	})
}

// RentalSummary sends the customer a recap of a completed rental.
func (d *Dispatcher) RentalSummary(order models.Order, user models.User) error {
	return d.publish(models.NotificationEvent{
		Type:    models.NotifyRentalSummary,
		To:      user.Email,
		OrderID: order.OrderID,
		UserID:  user.UserID,
		Data: map[string]string{
			"name":   user.Name,
			"total":  fmt.Sprintf("%.2f %s", order.TotalPrice, order.Currency),
			"status": string(order.Status),
		},
	})
}

func (d *Dispatcher) publish(event models.NotificationEvent) error {
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	if err := d.producer.Publish(d.topic, string(event.Type), payload); err != nil {
		d.logger.Error("NOTIFY", fmt.Sprintf("Failed to publish %s notification: %v", event.Type, err))
		return err
	}

	d.logger.LogKafka("PUBLISH", d.topic, fmt.Sprintf("%s notification queued for %s", event.Type, event.To))
	return nil
}
