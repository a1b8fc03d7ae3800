package order

import (
	"encoding/json"
	"strings"

	"couture-be/internal/auth"
)

// Command is one explicit field mutation accepted by UpdateFields.
type Command interface {
	// Field is the audited field name the command writes.
	Field() string
	apply(o *Order) error
}

type SetStatus struct{ Status Status }
type SetDesigner struct{ DesignerID *string }
type SetNotes struct{ Notes string }
type SetShippingAddress struct{ Address json.RawMessage }
type SetSubtotal struct{ Cents int64 }
type SetTax struct{ Cents int64 }
type SetShipping struct{ Cents int64 }
type SetTotal struct{ Cents int64 }

func (SetStatus) Field() string          { return "status" }
func (SetDesigner) Field() string        { return "designerId" }
func (SetNotes) Field() string           { return "notes" }
func (SetShippingAddress) Field() string { return "shippingAddress" }
func (SetSubtotal) Field() string        { return "subtotalCents" }
func (SetTax) Field() string             { return "taxCents" }
func (SetShipping) Field() string        { return "shippingCents" }
func (SetTotal) Field() string           { return "totalCents" }

func (c SetStatus) apply(o *Order) error {
	if _, ok := statusTransitions[c.Status]; !ok {
		return ErrUnknownStatus
	}
	if !CanTransition(o.Status, c.Status) {
		return ErrStatusTransitionNotAllowed
	}
	o.Status = c.Status
	return nil
}

func (c SetDesigner) apply(o *Order) error {
	if c.DesignerID == nil || strings.TrimSpace(*c.DesignerID) == "" {
		o.DesignerID = nil
		return nil
	}
	d := strings.TrimSpace(*c.DesignerID)
	o.DesignerID = &d
	return nil
}

func (c SetNotes) apply(o *Order) error {
	o.Notes = strings.TrimSpace(c.Notes)
	return nil
}

func (c SetShippingAddress) apply(o *Order) error {
	addr, err := normalizeAddress(c.Address)
	if err != nil {
		return err
	}
	o.ShippingAddress = addr
	return nil
}

func (c SetSubtotal) apply(o *Order) error { return setCents(&o.SubtotalCents, c.Cents) }
func (c SetTax) apply(o *Order) error      { return setCents(&o.TaxCents, c.Cents) }
func (c SetShipping) apply(o *Order) error { return setCents(&o.ShippingCents, c.Cents) }
func (c SetTotal) apply(o *Order) error    { return setCents(&o.TotalCents, c.Cents) }

func setCents(dst *int64, v int64) error {
	if v < 0 {
		return ErrNegativeAmount
	}
	*dst = v
	return nil
}

// normalizeAddress treats an empty or null address as unset.
func normalizeAddress(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, ErrInvalidAddress
	}
	return json.RawMessage(trimmed), nil
}

// authorize checks cmd against the actor's relationship to the order as it
// stands before the command is applied.
//
//	admin:             every command
//	assigned designer: SetStatus, SetNotes
//	owning customer:   SetNotes, SetShippingAddress, SetStatus(cancelled),
//	                   only while the order is cart or pending_payment
func authorize(actor auth.Principal, current *Order, cmd Command) error {
	if actor.IsAdmin() {
		return nil
	}

	if actor.IsDesigner() && current.isAssignedTo(actor.ID) {
		switch cmd.(type) {
		case SetStatus, SetNotes:
			return nil
		}
		return ErrCommandNotAllowed
	}

	if actor.IsCustomer() && current.isOwnedBy(actor.ID) {
		if !current.Status.customerEditable() {
			return ErrCommandNotAllowed
		}
		switch c := cmd.(type) {
		case SetNotes, SetShippingAddress:
			return nil
		case SetStatus:
			if c.Status == StatusCancelled || c.Status == current.Status {
				return nil
			}
		}
		return ErrCommandNotAllowed
	}

	return ErrOrderAccessDenied
}
