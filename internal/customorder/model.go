package customorder

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRequested        Status = "requested"
	StatusQuoted           Status = "quoted"
	StatusInProgress       Status = "in_progress"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusInProduction     Status = "in_production"
	StatusDelivered        Status = "delivered"
	StatusCompleted        Status = "completed"
	StatusRejected         Status = "rejected"
)

type ProgressStep string

const (
	StepBrief      ProgressStep = "brief"
	StepSketch     ProgressStep = "sketch"
	StepApproval   ProgressStep = "approval"
	StepProduction ProgressStep = "production"
	StepShipping   ProgressStep = "shipping"
	StepDone       ProgressStep = "done"
)

type PaymentStatus string

const (
	PaymentPending     PaymentStatus = "pending"
	PaymentDepositPaid PaymentStatus = "deposit_paid"
	PaymentPaidInFull  PaymentStatus = "paid_in_full"
	PaymentRefunded    PaymentStatus = "refunded"
)

var (
	statuses = []Status{
		StatusRequested, StatusQuoted, StatusInProgress, StatusAwaitingApproval,
		StatusInProduction, StatusDelivered, StatusCompleted, StatusRejected,
	}
	progressSteps   = []ProgressStep{StepBrief, StepSketch, StepApproval, StepProduction, StepShipping, StepDone}
	paymentStatuses = []PaymentStatus{PaymentPending, PaymentDepositPaid, PaymentPaidInFull, PaymentRefunded}
)

func parseEnum[T ~string](s string, allowed []T) (T, bool) {
	v := T(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range allowed {
		if a == v {
			return v, true
		}
	}
	return "", false
}

func ParseStatus(s string) (Status, bool)             { return parseEnum(s, statuses) }
func ParseProgressStep(s string) (ProgressStep, bool) { return parseEnum(s, progressSteps) }
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	return parseEnum(s, paymentStatuses)
}

// CustomOrder is a commission negotiated between a customer and one designer.
type CustomOrder struct {
	ID                    uuid.UUID       `json:"id"`
	CustomerID            string          `json:"customerId"`
	DesignerID            *string         `json:"designerId"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Measurements          json.RawMessage `json:"measurements"`
	InspirationImages     []string        `json:"inspirationImages"`
	BudgetCents           *int64          `json:"budgetCents"`
	QuoteCents            *int64          `json:"quoteCents"`
	DepositCents          *int64          `json:"depositCents"`
	EstimatedDeliveryDays *int            `json:"estimatedDeliveryDays"`
	Currency              string          `json:"currency"`
	Status                Status          `json:"status"`
	ProgressStep          ProgressStep    `json:"progressStep"`
	PaymentStatus         PaymentStatus   `json:"paymentStatus"`
	TrackingURL           *string         `json:"trackingUrl"`
	DesignerNote          string          `json:"designerNote"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func (c *CustomOrder) isAssignedTo(designerID string) bool {
	return designerID != "" && c.DesignerID != nil && *c.DesignerID == designerID
}

type CreateInput struct {
	Title             string
	Description       string
	Measurements      json.RawMessage
	InspirationImages []string
	BudgetCents       *int64
}

type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

type RespondInput struct {
	Action                Action
	QuoteCents            *int64
	DepositCents          *int64
	EstimatedDeliveryDays *int
	Note                  string
}

// StatusPatch sets any subset of the lifecycle fields. Nil fields are left alone.
type StatusPatch struct {
	Status        *Status
	ProgressStep  *ProgressStep
	PaymentStatus *PaymentStatus
	TrackingURL   *string
}

type Filter struct {
	Status *Status
}

// response is what a designer's respond call writes.
type response struct {
	DesignerID            string
	Status                Status
	QuoteCents            *int64
	DepositCents          *int64
	EstimatedDeliveryDays *int
	Note                  string
	UpdatedAt             time.Time
}
