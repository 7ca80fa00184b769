package order_test

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82/webhook"

	"gba-rental/internal/config"
	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	"gba-rental/internal/order"
	orderdb "gba-rental/internal/order/db"
)

const testWebhookSecret = "whsec_test_secret"

// fakeResultStore records commits so tests can assert exactly which
// writes the reconciler performed.
type fakeResultStore struct {
	orders  map[string]*models.Order
	pending []string // ids ordered newest first

	commits []commitCall
	failGet bool
}

type commitCall struct {
	orderID  string
	status   models.OrderStatus
	info     models.PaymentInfo
	intentID string
}

func newFakeStore() *fakeResultStore {
	return &fakeResultStore{orders: map[string]*models.Order{}}
}

func (f *fakeResultStore) addOrder(id string, status models.OrderStatus) {
	f.orders[id] = &models.Order{OrderID: id, Status: status}
	if status == models.OrderPending {
		f.pending = append([]string{id}, f.pending...)
	}
}

func (f *fakeResultStore) GetOrderByID(id string) (*models.Order, error) {
	if f.failGet {
		return nil, fmt.Errorf("db unavailable")
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, orderdb.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeResultStore) CommitPaymentResult(orderID string, status models.OrderStatus, info models.PaymentInfo, intentID string) error {
	if _, ok := f.orders[orderID]; !ok {
		return orderdb.ErrOrderNotFound
	}
	f.commits = append(f.commits, commitCall{orderID, status, info, intentID})
	f.orders[orderID].Status = status
	f.orders[orderID].PaymentInfo = info
	return nil
}

func (f *fakeResultStore) LatestPendingOrder() (*models.Order, error) {
	if len(f.pending) == 0 {
		return nil, orderdb.ErrOrderNotFound
	}
	return f.orders[f.pending[0]], nil
}

func newTestReconciler(store *fakeResultStore, fallback bool) *order.Reconciler {
	return order.NewReconciler(store, config.StripeConfig{
		WebhookSecret: testWebhookSecret,
		TestFallback:  fallback,
	}, logger.NewLogger())
}

// signPayload builds the Stripe-Signature header the provider would send.
func signPayload(payload []byte) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func succeededEvent(intentID, orderID string) []byte {
	metadata := "{}"
	if orderID != "" {
		metadata = fmt.Sprintf(`{"order_id":%q}`, orderID)
	}
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {
			"object": {
				"id": %q,
				"object": "payment_intent",
				"status": "succeeded",
				"metadata": %s,
				"latest_charge": {"id": "ch_1", "object": "charge", "receipt_url": "https://pay.stripe.com/receipts/r1"}
			}
		}
	}`, intentID, metadata))
}

func failedEvent(intentID, orderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_2",
		"type": "payment_intent.payment_failed",
		"data": {
			"object": {
				"id": %q,
				"object": "payment_intent",
				"status": "requires_payment_method",
				"metadata": {"order_id": %q}
			}
		}
	}`, intentID, orderID))
}

func TestReconcilerMarksOrderPaid(t *testing.T) {
	store := newFakeStore()
	store.addOrder("ord-1", models.OrderPending)
	rec := newTestReconciler(store, false)

	payload := succeededEvent("pi_1", "ord-1")
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Len(t, store.commits, 1)
	assert.Equal(t, "ord-1", store.commits[0].orderID)
	assert.Equal(t, models.OrderPaid, store.commits[0].status)
	assert.Equal(t, "pi_1", store.commits[0].info.Ref)
	assert.Equal(t, "succeeded", store.commits[0].info.RefStatus)
	assert.Equal(t, "https://pay.stripe.com/receipts/r1", store.commits[0].info.ReceiptURL)
	assert.Empty(t, store.commits[0].intentID)
}

func TestReconcilerReplayIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addOrder("ord-1", models.OrderPending)
	rec := newTestReconciler(store, false)

	payload := succeededEvent("pi_1", "ord-1")
	assert.NoError(t, rec.HandleEvent(payload, signPayload(payload)))
	assert.NoError(t, rec.HandleEvent(payload, signPayload(payload)))

	assert.Len(t, store.commits, 1)
	assert.Equal(t, models.OrderPaid, store.orders["ord-1"].Status)
}

func TestReconcilerMarksOrderFailed(t *testing.T) {
	store := newFakeStore()
	store.addOrder("ord-1", models.OrderPending)
	rec := newTestReconciler(store, false)

	payload := failedEvent("pi_1", "ord-1")
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Len(t, store.commits, 1)
	assert.Equal(t, models.OrderFailed, store.commits[0].status)
}

func TestReconcilerRetriedSuccessUpgradesFailedOrder(t *testing.T) {
	// The provider retries payment on the same intent, so a success
	// arriving after a provisional failure marks the order paid.
	store := newFakeStore()
	store.addOrder("ord-1", models.OrderFailed)
	rec := newTestReconciler(store, false)

	payload := succeededEvent("pi_1", "ord-1")
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Len(t, store.commits, 1)
	assert.Equal(t, models.OrderPaid, store.commits[0].status)
	assert.Equal(t, models.OrderPaid, store.orders["ord-1"].Status)
}

func TestReconcilerLateFailureNeverDowngradesPaidOrder(t *testing.T) {
	store := newFakeStore()
	store.addOrder("ord-1", models.OrderPaid)
	rec := newTestReconciler(store, false)

	payload := failedEvent("pi_1", "ord-1")
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Empty(t, store.commits)
	assert.Equal(t, models.OrderPaid, store.orders["ord-1"].Status)
}

func TestReconcilerRejectsInvalidSignature(t *testing.T) {
	store := newFakeStore()
	store.addOrder("ord-1", models.OrderPending)
	rec := newTestReconciler(store, false)

	payload := succeededEvent("pi_1", "ord-1")
	err := rec.HandleEvent(payload, "t=1,v1=deadbeef")

	var webhookErr *order.WebhookError
	assert.ErrorAs(t, err, &webhookErr)
	assert.Equal(t, 400, webhookErr.StatusCode)
	assert.Equal(t, "validation", webhookErr.Category)
	assert.Empty(t, store.commits)
	assert.Equal(t, models.OrderPending, store.orders["ord-1"].Status)
}

func TestReconcilerUnknownOrderIsAcknowledged(t *testing.T) {
	store := newFakeStore()
	rec := newTestReconciler(store, false)

	payload := succeededEvent("pi_1", "ord-missing")
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Empty(t, store.commits)
}

func TestReconcilerMetadataLessFallbackMatchesLatestPending(t *testing.T) {
	store := newFakeStore()
	store.addOrder("ord-old", models.OrderPending)
	store.addOrder("ord-new", models.OrderPending)
	rec := newTestReconciler(store, true)

	payload := succeededEvent("pi_test", "")
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Len(t, store.commits, 1)
	assert.Equal(t, "ord-new", store.commits[0].orderID)
	assert.Equal(t, models.OrderPaid, store.commits[0].status)
	// Fallback path attaches the intent id it matched on.
	assert.Equal(t, "pi_test", store.commits[0].intentID)
	assert.Equal(t, models.OrderPending, store.orders["ord-old"].Status)
}

func TestReconcilerMetadataLessIgnoredWhenFallbackDisabled(t *testing.T) {
	store := newFakeStore()
	store.addOrder("ord-1", models.OrderPending)
	rec := newTestReconciler(store, false)

	payload := succeededEvent("pi_test", "")
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Empty(t, store.commits)
}

func TestReconcilerMetadataLessWithNoPendingOrderIsAcknowledged(t *testing.T) {
	store := newFakeStore()
	rec := newTestReconciler(store, true)

	payload := succeededEvent("pi_test", "")
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Empty(t, store.commits)
}

func TestReconcilerMetadataLessFallbackNeverTouchesFailedOrders(t *testing.T) {
	// The fallback only matches pending orders; a failed order must not
	// come back to life from an ambiguous success event.
	store := newFakeStore()
	store.addOrder("ord-failed", models.OrderFailed)
	rec := newTestReconciler(store, true)

	payload := succeededEvent("pi_test", "")
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Empty(t, store.commits)
	assert.Equal(t, models.OrderFailed, store.orders["ord-failed"].Status)
}

func TestReconcilerIgnoresUnhandledEventTypes(t *testing.T) {
	store := newFakeStore()
	rec := newTestReconciler(store, false)

	payload := []byte(`{"id":"evt_3","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)
	err := rec.HandleEvent(payload, signPayload(payload))

	assert.NoError(t, err)
	assert.Empty(t, store.commits)
}

func TestReconcilerStoreFailureReturnsProcessingError(t *testing.T) {
	store := newFakeStore()
	store.addOrder("ord-1", models.OrderPending)
	store.failGet = true
	rec := newTestReconciler(store, false)

	payload := succeededEvent("pi_1", "ord-1")
	err := rec.HandleEvent(payload, signPayload(payload))

	var webhookErr *order.WebhookError
	assert.ErrorAs(t, err, &webhookErr)
	assert.Equal(t, 500, webhookErr.StatusCode)
	assert.Equal(t, "processing", webhookErr.Category)
}

func TestReconcilerMissingSecretIsConfigurationError(t *testing.T) {
	rec := order.NewReconciler(newFakeStore(), config.StripeConfig{}, logger.NewLogger())

	err := rec.HandleEvent([]byte(`{}`), "t=1,v1=abc")

	var webhookErr *order.WebhookError
	assert.ErrorAs(t, err, &webhookErr)
	assert.Equal(t, 500, webhookErr.StatusCode)
	assert.Equal(t, "configuration", webhookErr.Category)
}
