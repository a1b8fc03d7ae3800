// Package payment obtains payment-initiation tokens for checked-out orders.
// Settlement and webhooks are handled elsewhere.
package payment

import (
	"context"
	"errors"
)

var (
	ErrGateway       = errors.New("payment gateway failure")
	ErrNotConfigured = errors.New("payment gateway not configured")
	ErrInvalidAmount = errors.New("payment amount must be positive")
)

// CheckoutRequest describes the order being paid for.
type CheckoutRequest struct {
	OrderID       string
	CustomerID    string
	AmountCents   int64
	Currency      string
	PaymentMethod string
}

// Checkout is the opaque client-side token plus the provider reference.
type Checkout struct {
	Provider     string `json:"provider"`
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
}

// Gateway is a narrow synchronous call; it never retries.
type Gateway interface {
	InitiateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
}

type disabledGateway struct{}

// Disabled returns a Gateway that refuses every checkout. It is used when no
// provider key is configured.
func Disabled() Gateway {
	return disabledGateway{}
}

func (disabledGateway) InitiateCheckout(context.Context, CheckoutRequest) (*Checkout, error) {
	return nil, ErrNotConfigured
}
