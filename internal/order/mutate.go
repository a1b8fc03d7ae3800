package order

import (
	"context"
	"slices"

	"couture-be/internal/audit"
	"couture-be/internal/auth"
	"couture-be/internal/events"
	"couture-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fieldChange struct {
	field string
	prev  any
	next  any
}

// auditedFields lists every persisted field that can change after creation.
var auditedFields = []struct {
	name string
	get  func(o *Order) any
}{
	{"status", func(o *Order) any { return o.Status }},
	{"type", func(o *Order) any { return o.Type }},
	{"designerId", func(o *Order) any { return o.DesignerID }},
	{"customOrderId", func(o *Order) any { return o.CustomOrderID }},
	{"items", func(o *Order) any { return o.Items }},
	{"currency", func(o *Order) any { return o.Currency }},
	{"subtotalCents", func(o *Order) any { return o.SubtotalCents }},
	{"taxCents", func(o *Order) any { return o.TaxCents }},
	{"shippingCents", func(o *Order) any { return o.ShippingCents }},
	{"totalCents", func(o *Order) any { return o.TotalCents }},
	{"shippingAddress", func(o *Order) any { return o.ShippingAddress }},
	{"paymentMethod", func(o *Order) any { return o.PaymentMethod }},
	{"notes", func(o *Order) any { return o.Notes }},
}

func diffOrders(before, after *Order) ([]fieldChange, error) {
	var changes []fieldChange
	for _, f := range auditedFields {
		prev, next := f.get(before), f.get(after)
		equal, err := audit.Equal(prev, next)
		if err != nil {
			return nil, err
		}
		if !equal {
			changes = append(changes, fieldChange{field: f.name, prev: prev, next: next})
		}
	}
	return changes, nil
}

func actorRef(actor auth.Principal) *string {
	if actor.ID == "" {
		return nil
	}
	id := actor.ID
	return &id
}

// mutate runs fn against a copy of the locked order and persists the diff.
// When auditOnly is non-empty only those fields are recorded. Nothing is written
// if the copy equals the stored order.
func (s *service) mutate(
	ctx context.Context,
	id uuid.UUID,
	actor auth.Principal,
	comment string,
	auditOnly []string,
	fn func(current, next *Order) error,
) (*Order, []fieldChange, error) {

	var (
		result  *Order
		from    Status
		changes []fieldChange
	)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = current.Status

		next := current.clone()
		if err := fn(current, next); err != nil {
			return err
		}

		changes, err = diffOrders(current, next)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			result = current
			return nil
		}

		next.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, next); err != nil {
			return err
		}

		for _, c := range changes {
			if len(auditOnly) > 0 && !slices.Contains(auditOnly, c.field) {
				continue
			}
			if _, err := s.audit.RecordChange(ctx, audit.Change{
				OrderID:   id,
				Field:     c.field,
				Previous:  c.prev,
				New:       c.next,
				ChangedBy: actorRef(actor),
				Comment:   comment,
			}); err != nil {
				return err
			}
		}

		result = next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if result.Status != from {
		s.statusChanged(ctx, actor, result, from)
	}

	return result, changes, nil
}

// statusChanged runs after commit. Publishing is best effort.
func (s *service) statusChanged(ctx context.Context, actor auth.Principal, o *Order, from Status) {
	s.metrics.ObserveTransition(string(from), string(o.Status))

	err := s.events.Publish(ctx, events.Event{
		Type:           events.OrderStatusChanged,
		AggregateType:  "order",
		AggregateID:    o.ID.String(),
		PreviousStatus: string(from),
		CurrentStatus:  string(o.Status),
		ActorID:        actor.ID,
		OccurredAt:     o.UpdatedAt,
	})
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to publish order event",
			zap.String("layer", "service"),
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
}
