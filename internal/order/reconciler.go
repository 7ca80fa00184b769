package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"gba-rental/internal/config"
	"gba-rental/internal/logger"
	"gba-rental/internal/metrics"
	"gba-rental/internal/models"
	orderdb "gba-rental/internal/order/db"
)

// WebhookError carries enough detail to answer the provider correctly
// while keeping internals out of the response body.
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int    // HTTP status code
	PublicError   string // Safe to expose to clients
	InternalError string // Detailed error for logs only
	OriginalErr   error  // Underlying error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

// PaymentResultStore is the only write capability for payment outcomes.
// Handing it exclusively to the reconciler keeps the diagnostic
// status-check path read-only.
type PaymentResultStore interface {
	GetOrderByID(id string) (*models.Order, error)
	CommitPaymentResult(orderID string, status models.OrderStatus, info models.PaymentInfo, intentID string) error
	LatestPendingOrder() (*models.Order, error)
}

// Reconciler turns verified provider webhook events into order state
// transitions. It is the single writer of paid/failed outcomes.
type Reconciler struct {
	Store PaymentResultStore

	webhookSecret string
	testFallback  bool
	logger        *logger.Logger
}

func NewReconciler(store PaymentResultStore, cfg config.StripeConfig, log *logger.Logger) *Reconciler {
	return &Reconciler{
		Store:         store,
		webhookSecret: cfg.WebhookSecret,
		testFallback:  cfg.TestFallback,
		logger:        log,
	}
}

// HandleEvent verifies the signed payload and applies the outcome it
// describes. A nil return means the event was handled (or deliberately
// ignored) and must be acknowledged so the provider stops retrying.
func (r *Reconciler) HandleEvent(payload []byte, sigHeader string) error {
	if r.webhookSecret == "" {
		r.logger.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, r.webhookSecret, opts)
	if err != nil {
		r.logger.Error("WEBHOOK", fmt.Sprintf("Webhook signature verification failed: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook signature",
			InternalError: fmt.Sprintf("webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	r.logger.Info("WEBHOOK", fmt.Sprintf("Processing webhook event: %s", event.Type))

	switch event.Type {
	case "payment_intent.succeeded":
		return r.handleIntentOutcome(event, models.OrderPaid)

	case "payment_intent.payment_failed":
		return r.handleIntentOutcome(event, models.OrderFailed)

	default:
		// Unknown event types are acknowledged so the provider does not
		// retry them forever.
		r.logger.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
		return nil
	}
}

func (r *Reconciler) handleIntentOutcome(event stripe.Event, status models.OrderStatus) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		r.logger.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal payment intent: %v", err))
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid event data",
			InternalError: fmt.Sprintf("failed to unmarshal payment intent: %v", err),
			OriginalErr:   err,
		}
	}

	orderID, attachIntent := intent.Metadata["order_id"], ""
	if orderID == "" {
		if status != models.OrderPaid || !r.testFallback {
			r.logger.Warn("WEBHOOK", fmt.Sprintf("Payment intent %s has no order_id metadata, ignoring", intent.ID))
			return nil
		}
		// Provider-dashboard test events carry no metadata. Map the
		// success onto the most recent pending order and attach the
		// intent id while committing.
		pending, err := r.Store.LatestPendingOrder()
		if errors.Is(err, orderdb.ErrOrderNotFound) {
			r.logger.Warn("WEBHOOK", fmt.Sprintf("No pending order to match metadata-less intent %s, ignoring", intent.ID))
			return nil
		}
		if err != nil {
			return r.storeError(intent.ID, err)
		}
		r.logger.Warn("WEBHOOK", fmt.Sprintf("Intent %s has no metadata; falling back to latest pending order %s", intent.ID, pending.OrderID))
		orderID, attachIntent = pending.OrderID, intent.ID
	}

	order, err := r.Store.GetOrderByID(orderID)
	if errors.Is(err, orderdb.ErrOrderNotFound) {
		r.logger.Warn("WEBHOOK", fmt.Sprintf("Intent %s references unknown order %s, ignoring", intent.ID, orderID))
		return nil
	}
	if err != nil {
		return r.storeError(intent.ID, err)
	}

	// Replayed deliveries and late failures never downgrade a paid order.
	// A failed order, however, may still become paid: the provider retries
	// the customer's payment on the same intent, so a success after a
	// provisional failure is a legitimate outcome, not a replay.
	if order.Status == models.OrderPaid {
		r.logger.Info("WEBHOOK", fmt.Sprintf("Order %s already paid, ignoring %s for intent %s", orderID, event.Type, intent.ID))
		return nil
	}

	info := models.PaymentInfo{
		Ref:       intent.ID,
		RefStatus: string(intent.Status),
	}
	if intent.LatestCharge != nil {
		info.ReceiptURL = intent.LatestCharge.ReceiptURL
	}

	if err := r.Store.CommitPaymentResult(orderID, status, info, attachIntent); err != nil {
		return r.storeError(intent.ID, err)
	}

	metrics.RecordPaymentProcessed(string(status))
	r.logger.LogOrder("RECONCILE", orderID, fmt.Sprintf("order marked %s from intent %s", status, intent.ID))
	return nil
}

func (r *Reconciler) storeError(intentID string, err error) error {
	r.logger.Error("WEBHOOK", fmt.Sprintf("Failed to apply outcome for intent %s: %v", intentID, err))
	return &WebhookError{
		Category:      "processing",
		StatusCode:    http.StatusInternalServerError,
		PublicError:   "Failed to process payment event",
		InternalError: fmt.Sprintf("failed to apply outcome for intent %s: %v", intentID, err),
		OriginalErr:   err,
	}
}
