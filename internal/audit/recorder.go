// Package audit is the append-only change history of orders. A record is
// written only when the canonical forms of the previous and new value differ.
package audit

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"couture-be/internal/logger"
	"couture-be/internal/metrics"
	"couture-be/internal/pagination"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const maxCommentLength = 500

type Recorder interface {
	// RecordChange appends one entry for c, or returns (nil, nil) without
	// writing when the values are canonically equal.
	RecordChange(ctx context.Context, c Change) (*Entry, error)
	Trail(ctx context.Context, orderID uuid.UUID, page pagination.Params) (*pagination.Result[Entry], error)
}

type recorder struct {
	repo    Repository
	clock   func() time.Time
	newID   func() string
	policy  *bluemonday.Policy
	metrics *metrics.Metrics
}

type Option func(*recorder)

func WithClock(clock func() time.Time) Option {
	return func(r *recorder) { r.clock = clock }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *recorder) { r.newID = newID }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *recorder) { r.metrics = m }
}

func NewRecorder(repo Repository, opts ...Option) Recorder {
	r := &recorder{
		repo:   repo,
		clock:  time.Now,
		newID:  func() string { return ulid.Make().String() },
		policy: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *recorder) RecordChange(ctx context.Context, c Change) (*Entry, error) {
	if c.OrderID == uuid.Nil {
		return nil, ErrMissingOrderID
	}
	field := strings.TrimSpace(c.Field)
	if field == "" {
		return nil, ErrMissingField
	}

	prev, err := Canonicalize(c.Previous)
	if err != nil {
		return nil, err
	}
	next, err := Canonicalize(c.New)
	if err != nil {
		return nil, err
	}
	if string(prev) == string(next) {
		return nil, nil
	}

	entry := &Entry{
		ID:            r.newID(),
		OrderID:       c.OrderID,
		Field:         field,
		PreviousValue: prev,
		NewValue:      next,
		ChangedBy:     c.ChangedBy,
		Comment:       r.sanitizeComment(c.Comment),
		CreatedAt:     r.clock().UTC(),
	}

	if err := r.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}

	r.metrics.ObserveAuditRecord(field)
	logger.FromCtx(ctx).Debug("audit record appended",
		zap.String("layer", "audit"),
		zap.String("order_id", c.OrderID.String()),
		zap.String("field", field),
		zap.String("audit_id", entry.ID),
	)

	return entry, nil
}

func (r *recorder) Trail(ctx context.Context, orderID uuid.UUID, page pagination.Params) (*pagination.Result[Entry], error) {
	page = page.Normalize()

	entries, err := r.repo.ListByOrder(ctx, orderID, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := r.repo.CountByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return pagination.NewResult(entries, total, page), nil
}

// sanitizeComment strips markup so admin tooling can render comments verbatim.
func (r *recorder) sanitizeComment(comment string) string {
	comment = strings.TrimSpace(r.policy.Sanitize(comment))
	if utf8.RuneCountInString(comment) > maxCommentLength {
		comment = string([]rune(comment)[:maxCommentLength])
	}
	return comment
}
