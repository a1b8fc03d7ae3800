package order

import (
	"slices"
	"strings"
)

type Status string

const (
	StatusCart             Status = "cart"
	StatusPendingPayment   Status = "pending_payment"
	StatusPaid             Status = "paid"
	StatusInProduction     Status = "in_production"
	StatusWaitingForReview Status = "waiting_for_review"
	StatusShipped          Status = "shipped"
	StatusDelivered        Status = "delivered"
	StatusCancelled        Status = "cancelled"
	StatusRefunded         Status = "refunded"
	StatusDisputeOpened    Status = "dispute_opened"
)

var AllStatuses = []Status{
	StatusCart,
	StatusPendingPayment,
	StatusPaid,
	StatusInProduction,
	StatusWaitingForReview,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusRefunded,
	StatusDisputeOpened,
}

// statusTransitions is fixed. A dispute may resolve back into any
// mid-fulfillment stage, and refunded is terminal.
var statusTransitions = map[Status][]Status{
	StatusCart:             {StatusPendingPayment, StatusCancelled},
	StatusPendingPayment:   {StatusPaid, StatusCancelled, StatusRefunded, StatusDisputeOpened},
	StatusPaid:             {StatusInProduction, StatusCancelled, StatusRefunded, StatusDisputeOpened},
	StatusInProduction:     {StatusWaitingForReview, StatusCancelled, StatusDisputeOpened},
	StatusWaitingForReview: {StatusShipped, StatusRefunded, StatusDisputeOpened},
	StatusShipped:          {StatusDelivered, StatusRefunded, StatusDisputeOpened},
	StatusDelivered:        {StatusRefunded, StatusDisputeOpened},
	StatusCancelled:        {StatusPendingPayment},
	StatusRefunded:         {},
	StatusDisputeOpened:    {StatusRefunded, StatusInProduction, StatusWaitingForReview, StatusShipped, StatusDelivered},
}

// CanTransition reports whether from -> to is legal. Staying in the same
// status is always legal.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	next, ok := statusTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(next, to)
}

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := statusTransitions[st]; !ok {
		return "", false
	}
	return st, true
}

func ParseType(s string) (Type, bool) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeStandard, TypeCustom:
		return t, true
	}
	return "", false
}

// customerEditable reports whether the owning customer may still edit
// delivery details or cancel.
func (s Status) customerEditable() bool {
	return s == StatusCart || s == StatusPendingPayment
}
