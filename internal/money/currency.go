// Package money holds the currency registry and the fixed pricing policy used
// to derive order money fields. Everything here is pure.
package money

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/currency"
)

// BaseCurrency is used whenever a principal has no usable preferred currency.
const BaseCurrency = "USD"

// SupportedCurrencies is the fixed set of currencies the marketplace settles in.
var SupportedCurrencies = []string{
	"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "NGN", "GHS", "KES", "ZAR", "AED", "INR",
}

// Registry answers currency questions against a static supported table.
type Registry struct {
	base      string
	supported map[string]struct{}
}

// NewRegistry builds a registry. Every code must be a recognised ISO 4217 code
// and base must be one of them.
func NewRegistry(base string, codes ...string) (*Registry, error) {
	r := &Registry{supported: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		norm, err := parseISO(c)
		if err != nil {
			return nil, err
		}
		r.supported[norm] = struct{}{}
	}

	b, err := parseISO(base)
	if err != nil {
		return nil, err
	}
	if _, ok := r.supported[b]; !ok {
		return nil, fmt.Errorf("money: base currency %s is not in the supported set", b)
	}
	r.base = b
	return r, nil
}

// DefaultRegistry returns the registry over SupportedCurrencies with base.
// An unusable base falls back to BaseCurrency.
func DefaultRegistry(base string) *Registry {
	r, err := NewRegistry(base, SupportedCurrencies...)
	if err != nil {
		r, _ = NewRegistry(BaseCurrency, SupportedCurrencies...)
	}
	return r
}

// Normalize returns the canonical upper-case code when code is a supported
// currency, and false otherwise.
func (r *Registry) Normalize(code string) (string, bool) {
	norm, err := parseISO(code)
	if err != nil {
		return "", false
	}
	if _, ok := r.supported[norm]; !ok {
		return "", false
	}
	return norm, true
}

func (r *Registry) IsSupported(code string) bool {
	_, ok := r.Normalize(code)
	return ok
}

func (r *Registry) Base() string {
	return r.base
}

// Preferred resolves a principal's preferred currency, falling back to base.
func (r *Registry) Preferred(code string) string {
	if norm, ok := r.Normalize(code); ok {
		return norm
	}
	return r.base
}

// Codes lists the supported codes in sorted order.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.supported))
	for c := range r.supported {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func parseISO(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("money: invalid currency code %q", code)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("money: invalid currency code %q: %w", code, err)
	}
	return unit.String(), nil
}
