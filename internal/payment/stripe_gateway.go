package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"couture-be/internal/logger"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"
)

type paymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type StripeConfig struct {
	APIKey    string
	AccountID string
	Backends  *stripe.Backends

	intents paymentIntentAPI
}

type StripeGateway struct {
	intents paymentIntentAPI
	account string
}

func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	intents := cfg.intents
	if intents == nil {
		if apiKey == "" {
			return nil, errors.New("stripe: api key is required")
		}
		intents = client.New(apiKey, cfg.Backends).PaymentIntents
	}

	return &StripeGateway{
		intents: intents,
		account: strings.TrimSpace(cfg.AccountID),
	}, nil
}

// InitiateCheckout creates a PaymentIntent for the order total. The idempotency
// key is derived from the order and amount, so a retried checkout of an
// unchanged cart reuses the same intent.
func (g *StripeGateway) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "payment"),
		zap.String("method", "InitiateCheckout"),
		zap.String("order_id", req.OrderID),
	)

	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(fmt.Sprintf("checkout-%s-%d", req.OrderID, req.AmountCents))
	if g.account != "" {
		params.SetStripeAccount(g.account)
	}
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("customer_id", req.CustomerID)
	if method := strings.TrimSpace(req.PaymentMethod); method != "" {
		params.AddMetadata("payment_method", method)
	}

	intent, err := g.intents.New(params)
	if err != nil {
		log.Error("stripe payment intent failed", zap.Error(err))
		return nil, fmt.Errorf("%w: stripe: create payment intent: %w", ErrGateway, err)
	}

	log.Info("stripe payment intent created",
		zap.String("intent_id", intent.ID),
		zap.Int64("amount", req.AmountCents),
		zap.String("currency", req.Currency),
	)

	return &Checkout{
		Provider:     "stripe",
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}
