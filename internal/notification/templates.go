package notification

import (
	"fmt"

	"gba-rental/internal/models"
)

// RenderEmail produces the subject and HTML body for a notification
// event. Unknown types render a generic update so the worker never
// drops a message on the floor.
func RenderEmail(event models.NotificationEvent) (subject, htmlBody string) {
	name := event.Data["name"]
	if name == "" {
		name = "there"
	}

	switch event.Type {
	case models.NotifyWelcome:
		subject = "Welcome to GBA Location"
		htmlBody = fmt.Sprintf(
			"<h2>Welcome, %s!</h2><p>Your account is ready. Browse our catalog and book your first vehicle today.</p>",
			name)

	case models.NotifyNewOrder:
		subject = fmt.Sprintf("New rental order %s", event.OrderID)
		htmlBody = fmt.Sprintf(
			"<h2>New order received</h2><p>Order <strong>%s</strong>: %s for %s.</p><p>Review it in the admin dashboard.</p>",
			event.OrderID, event.Data["vehicle"], event.Data["total"])

	case models.NotifyOrderApproved:
		subject = "Your rental is confirmed"
		htmlBody = fmt.Sprintf(
			"<h2>Good news, %s!</h2><p>Your order <strong>%s</strong> (%s) has been approved.</p>"+
				"<p>Your pickup voucher QR code is available in your account under this order.</p>",
			name, event.OrderID, event.Data["total"])

	case models.NotifyOrderRejected:
		subject = "About your rental request"
		htmlBody = fmt.Sprintf(
			"<h2>Sorry, %s</h2><p>We could not approve order <strong>%s</strong>. Contact support for details.</p>",
			name, event.OrderID)

	case models.NotifyPaymentReminder:
		subject = "Payment reminder for your rental"
		htmlBody = fmt.Sprintf(
			"<h2>Hi %s</h2><p>Order <strong>%s</strong> (%s) is still awaiting payment. Complete it to secure your vehicle.</p>",
			name, event.OrderID, event.Data["total"])

	case models.NotifyRentalSummary:
		subject = "Your rental summary"
		htmlBody = fmt.Sprintf(
			"<h2>Thanks, %s!</h2><p>Order <strong>%s</strong> is %s. Total: %s.</p><p>We hope to see you again.</p>",
			name, event.OrderID, event.Data["status"], event.Data["total"])

	default:
		subject = "Update from GBA Location"
		htmlBody = fmt.Sprintf("<p>There is an update on your account (order %s).</p>", event.OrderID)
	}
	return subject, htmlBody
}
