package money

import "github.com/shopspring/decimal"

const (
	FreeShippingThresholdCents int64 = 30000
	FlatShippingCents          int64 = 1500
)

var taxRate = decimal.RequireFromString("0.08")

// Line is one priced line of a cart.
type Line struct {
	UnitPriceCents int64
	Quantity       int
}

// Totals are the four derived money fields of an order, in minor units.
type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
}

// Consistent reports whether total == subtotal + tax + shipping.
func (t Totals) Consistent() bool {
	return t.TotalCents == t.SubtotalCents+t.TaxCents+t.ShippingCents
}

// ComputeTotals derives the money fields for lines. An empty cart has nothing
// to ship, so it is all zeros.
func ComputeTotals(lines []Line) Totals {
	if len(lines) == 0 {
		return Totals{}
	}

	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPriceCents * int64(l.Quantity)
	}

	tax := TaxFor(subtotal)
	shipping := ShippingFor(subtotal)

	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ShippingCents: shipping,
		TotalCents:    subtotal + tax + shipping,
	}
}

// TaxFor rounds subtotal * 8% half away from zero.
func TaxFor(subtotalCents int64) int64 {
	return decimal.NewFromInt(subtotalCents).Mul(taxRate).Round(0).IntPart()
}

// ShippingFor is free strictly above the threshold.
func ShippingFor(subtotalCents int64) int64 {
	if subtotalCents > FreeShippingThresholdCents {
		return 0
	}
	return FlatShippingCents
}
