package audit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"couture-be/internal/apperror"
	"couture-be/internal/metrics"
	"couture-be/internal/pagination"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository keeps entries in insertion order.
type memoryRepository struct {
	mu        sync.Mutex
	entries   []Entry
	insertErr error
}

func (m *memoryRepository) Insert(_ context.Context, e *Entry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memoryRepository) ListByOrder(_ context.Context, orderID uuid.UUID, limit, offset int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Entry{}
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return []Entry{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepository) CountByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.entries {
		if e.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("WAT", 3600))
}

func TestRecorder_RecordChange(t *testing.T) {
	repo := &memoryRepository{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	rec := NewRecorder(repo, WithClock(fixedClock), WithMetrics(m))

	orderID := uuid.New()
	actor := "designer-7"

	entry, err := rec.RecordChange(context.Background(), Change{
		OrderID:   orderID,
		Field:     "status",
		Previous:  "paid",
		New:       "in_production",
		ChangedBy: &actor,
		Comment:   "  <b>started</b> cutting ",
	})
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Len(t, entry.ID, 26)
	assert.Equal(t, orderID, entry.OrderID)
	assert.Equal(t, "status", entry.Field)
	assert.JSONEq(t, `"paid"`, string(entry.PreviousValue))
	assert.JSONEq(t, `"in_production"`, string(entry.NewValue))
	assert.Equal(t, "started cutting", entry.Comment)
	assert.Equal(t, time.UTC, entry.CreatedAt.Location())
	assert.True(t, entry.CreatedAt.Equal(fixedClock()))
	assert.Len(t, repo.entries, 1)
	count, err := testutil.GatherAndCount(reg, "couture_audit_records_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorder_RecordChange_NoOpWhenEqual(t *testing.T) {
	repo := &memoryRepository{}
	rec := NewRecorder(repo)
	orderID := uuid.New()

	tests := []struct {
		name     string
		previous any
		new      any
	}{
		{"same scalar", int64(2800), int64(2800)},
		{"nil and typed nil", nil, (*string)(nil)},
		{"maps in different key order", map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2, "a": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := rec.RecordChange(context.Background(), Change{
				OrderID: orderID, Field: "x", Previous: tt.previous, New: tt.new,
			})
			assert.NoError(t, err)
			assert.Nil(t, entry)
		})
	}
	assert.Empty(t, repo.entries)
}

func TestRecorder_RecordChange_Idempotent(t *testing.T) {
	repo := &memoryRepository{}
	rec := NewRecorder(repo)
	orderID := uuid.New()

	// The second call sees the already-applied value as its previous value.
	first, err := rec.RecordChange(context.Background(), Change{OrderID: orderID, Field: "notes", Previous: "", New: "rush"})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := rec.RecordChange(context.Background(), Change{OrderID: orderID, Field: "notes", Previous: "rush", New: "rush"})
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Len(t, repo.entries, 1)
}

func TestRecorder_RecordChange_Validation(t *testing.T) {
	rec := NewRecorder(&memoryRepository{})

	_, err := rec.RecordChange(context.Background(), Change{Field: "status", Previous: "a", New: "b"})
	assert.ErrorIs(t, err, ErrMissingOrderID)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = rec.RecordChange(context.Background(), Change{OrderID: uuid.New(), Field: "  ", Previous: "a", New: "b"})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestRecorder_RecordChange_StorageError(t *testing.T) {
	repo := &memoryRepository{insertErr: apperror.Storage(errors.New("disk full"))}
	rec := NewRecorder(repo)

	entry, err := rec.RecordChange(context.Background(), Change{OrderID: uuid.New(), Field: "status", Previous: "a", New: "b"})
	assert.Nil(t, entry)
	assert.ErrorIs(t, err, apperror.ErrStorage)
}

func TestRecorder_CommentTruncated(t *testing.T) {
	repo := &memoryRepository{}
	rec := NewRecorder(repo)

	entry, err := rec.RecordChange(context.Background(), Change{
		OrderID: uuid.New(), Field: "notes", Previous: "a", New: "b",
		Comment: strings.Repeat("é", maxCommentLength+50),
	})
	require.NoError(t, err)
	assert.Equal(t, maxCommentLength, len([]rune(entry.Comment)))
}

func TestRecorder_Trail(t *testing.T) {
	repo := &memoryRepository{}
	ids := []string{"01", "02", "03"}
	i := 0
	rec := NewRecorder(repo, WithIDGenerator(func() string {
		id := ids[i]
		i++
		return id
	}))
	orderID := uuid.New()
	other := uuid.New()

	for _, c := range []Change{
		{OrderID: orderID, Field: "status", Previous: "cart", New: "pending_payment"},
		{OrderID: other, Field: "status", Previous: "cart", New: "cancelled"},
		{OrderID: orderID, Field: "status", Previous: "pending_payment", New: "paid"},
	} {
		_, err := rec.RecordChange(context.Background(), c)
		require.NoError(t, err)
	}

	page, err := rec.Trail(context.Background(), orderID, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, pagination.DefaultLimit, page.Limit)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "01", page.Items[0].ID)
	assert.Equal(t, "03", page.Items[1].ID)

	page, err = rec.Trail(context.Background(), orderID, pagination.Params{Limit: 1, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "03", page.Items[0].ID)
}
