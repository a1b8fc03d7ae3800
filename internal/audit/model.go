package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one immutable field change on an order.
type Entry struct {
	ID            string          `json:"id"`
	OrderID       uuid.UUID       `json:"orderId"`
	Field         string          `json:"field"`
	PreviousValue json.RawMessage `json:"previousValue"`
	NewValue      json.RawMessage `json:"newValue"`
	ChangedBy     *string         `json:"changedBy"`
	Comment       string          `json:"comment"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Change is a proposed field change. Previous and New may be any
// JSON-serialisable value.
type Change struct {
	OrderID   uuid.UUID
	Field     string
	Previous  any
	New       any
	ChangedBy *string
	Comment   string
}
