// Package pagination normalises limit/page query parameters.
package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a 1-based page request.
type Params struct {
	Limit int
	Page  int
}

// Normalize applies the default limit, clamps it to MaxLimit and floors page at 1.
func (p Params) Normalize() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Result is one page of items plus the total matching count.
type Result[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func NewResult[T any](items []T, total int64, p Params) *Result[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	return &Result[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}
