package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"couture-be/internal/apperror"
	"couture-be/internal/order"
)

// moneyFields in the order their commands are applied.
var moneyFields = []string{"subtotalCents", "taxCents", "shippingCents", "totalCents"}

// decodePatch turns a PATCH body into order commands plus the audit comment.
// Keys are applied in a fixed order with status last, so a single request can
// fix money fields and move the order on.
func decodePatch(body []byte) ([]order.Command, string, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, "", ErrInvalidBody
	}

	var (
		cmds    []order.Command
		comment string
	)

	if v, ok := raw["comment"]; ok {
		if err := json.Unmarshal(v, &comment); err != nil {
			return nil, "", fieldError("comment", "must be a string")
		}
		delete(raw, "comment")
	}

	if v, ok := raw["designerId"]; ok {
		var d *string
		if err := json.Unmarshal(v, &d); err != nil {
			return nil, "", fieldError("designerId", "must be a string or null")
		}
		cmds = append(cmds, order.SetDesigner{DesignerID: d})
		delete(raw, "designerId")
	}

	if v, ok := raw["notes"]; ok {
		var notes string
		if err := json.Unmarshal(v, &notes); err != nil {
			return nil, "", fieldError("notes", "must be a string")
		}
		cmds = append(cmds, order.SetNotes{Notes: notes})
		delete(raw, "notes")
	}

	if v, ok := raw["shippingAddress"]; ok {
		cmds = append(cmds, order.SetShippingAddress{Address: v})
		delete(raw, "shippingAddress")
	}

	for _, field := range moneyFields {
		v, ok := raw[field]
		if !ok {
			continue
		}
		cents, err := parseCents(v)
		if err != nil {
			return nil, "", fieldError(field, "must be an integer amount of minor units")
		}
		switch field {
		case "subtotalCents":
			cmds = append(cmds, order.SetSubtotal{Cents: cents})
		case "taxCents":
			cmds = append(cmds, order.SetTax{Cents: cents})
		case "shippingCents":
			cmds = append(cmds, order.SetShipping{Cents: cents})
		case "totalCents":
			cmds = append(cmds, order.SetTotal{Cents: cents})
		}
		delete(raw, field)
	}

	if v, ok := raw["status"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, "", fieldError("status", "must be a string")
		}
		st, ok := order.ParseStatus(s)
		if !ok {
			return nil, "", order.ErrUnknownStatus
		}
		cmds = append(cmds, order.SetStatus{Status: st})
		delete(raw, "status")
	}

	for key := range raw {
		return nil, "", fieldError(key, "is not an editable field")
	}

	return cmds, strings.TrimSpace(comment), nil
}

// parseCents accepts only JSON integers; 12.5, "12" and 1e3 are rejected.
func parseCents(v json.RawMessage) (int64, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || (v[0] != '-' && (v[0] < '0' || v[0] > '9')) {
		return 0, ErrInvalidBody
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return 0, err
	}
	return n.Int64()
}

func fieldError(field, msg string) error {
	return fmt.Errorf("%w: %s %s", apperror.ErrValidation, field, msg)
}
