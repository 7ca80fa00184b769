package models

import "time"

type NotificationType string

const (
	NotifyWelcome         NotificationType = "welcome"
	NotifyNewOrder        NotificationType = "new_order"
	NotifyOrderApproved   NotificationType = "order_approved"
	NotifyOrderRejected   NotificationType = "order_rejected"
	NotifyPaymentReminder NotificationType = "payment_reminder"
	NotifyRentalSummary   NotificationType = "rental_summary"
)

// NotificationEvent is the Kafka payload the email worker consumes. Data
// carries template fields (customer name, vehicle description, total, ...).
type NotificationEvent struct {
	Type      NotificationType  `json:"type"`
	To        string            `json:"to"`
	OrderID   string            `json:"order_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
