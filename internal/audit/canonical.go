package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonicalize renders v as JSON with map keys sorted at every depth, so two
// structurally equal values give identical bytes whatever their Go types.
// A nil value canonicalizes to "null".
func Canonicalize(v any) (json.RawMessage, error) {
	var raw []byte
	switch t := v.(type) {
	case json.RawMessage:
		raw = t
	case []byte:
		raw = t
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("audit: canonicalize: %w", err)
		}
		raw = b
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null"), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("audit: canonicalize: %w", err)
	}

	// encoding/json writes map keys in sorted order
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("audit: canonicalize: %w", err)
	}
	return out, nil
}

// Equal reports whether a and b canonicalize to the same document.
func Equal(a, b any) (bool, error) {
	ca, err := Canonicalize(a)
	if err != nil {
		return false, err
	}
	cb, err := Canonicalize(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ca, cb), nil
}
