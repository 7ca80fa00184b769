package payment

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"gba-rental/internal/config"
	"gba-rental/internal/logger"
)

var (
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
	ErrInvalidAmount          = errors.New("invalid payment amount")
)

// Gateway wraps the Stripe API for payment-intent creation and retrieval.
// It holds no local state; the order id travels in intent metadata so the
// webhook reconciler can correlate events back to orders.
type Gateway struct {
	client *client.API
	log    *logger.Logger
}

func NewGateway(cfg config.StripeConfig, log *logger.Logger) (*Gateway, error) {
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY is not configured")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(cfg.SecretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &Gateway{client: sc, log: log}, nil
}

// CreateIntent creates a payment intent for the given amount in minor
// currency units, tagged with the order id for webhook correlation.
func (g *Gateway) CreateIntent(amountMinorUnits int64, currency, orderID string) (*stripe.PaymentIntent, error) {
	if amountMinorUnits <= 0 {
		g.log.Error("STRIPE", fmt.Sprintf("Invalid amount %d for order %s", amountMinorUnits, orderID))
		return nil, ErrInvalidAmount
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", orderID)

	intent, err := g.client.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent for order %s: %v", orderID, err))
		return nil, fmt.Errorf("stripe payment intent creation failed: %w", err)
	}

	g.log.Info("STRIPE", fmt.Sprintf("Created payment intent %s for order %s (%d %s)", intent.ID, orderID, amountMinorUnits, currency))
	return intent, nil
}

// GetIntent retrieves the live state of a payment intent. Used by the
// diagnostic status-check path only; callers must never persist status
// changes based on this.
func (g *Gateway) GetIntent(id string) (*stripe.PaymentIntent, error) {
	intent, err := g.client.PaymentIntents.Get(id, nil)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to retrieve payment intent %s: %v", id, err))
		return nil, fmt.Errorf("stripe payment intent lookup failed: %w", err)
	}
	return intent, nil
}
