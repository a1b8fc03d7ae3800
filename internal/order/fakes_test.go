package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"couture-be/internal/apperror"
	"couture-be/internal/audit"
	"couture-be/internal/events"
	"couture-be/internal/pagination"
	"couture-be/internal/payment"
	"couture-be/internal/product"

	"github.com/google/uuid"
)

// memRepository is an in-memory Repository that enforces one cart per customer.
type memRepository struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*Order
	updateErr error
}

func newMemRepository() *memRepository {
	return &memRepository{orders: map[uuid.UUID]*Order{}}
}

func (m *memRepository) put(o *Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o.clone()
}

func (m *memRepository) snapshot() map[uuid.UUID]*Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*Order, len(m.orders))
	for id, o := range m.orders {
		out[id] = o.clone()
	}
	return out
}

func (m *memRepository) restore(s map[uuid.UUID]*Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = s
}

func (m *memRepository) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o.clone(), nil
}

func (m *memRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return m.GetByID(ctx, id)
}

func (m *memRepository) FindCartByCustomer(_ context.Context, customerID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.CustomerID == customerID && o.Status == StatusCart {
			return o.clone(), nil
		}
	}
	return nil, ErrOrderNotFound
}

func (m *memRepository) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if o.Status == StatusCart && existing.Status == StatusCart && existing.CustomerID == o.CustomerID {
			return errCartExists
		}
	}
	m.orders[o.ID] = o.clone()
	return nil
}

func (m *memRepository) Update(_ context.Context, o *Order) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return ErrOrderNotFound
	}
	m.orders[o.ID] = o.clone()
	return nil
}

func (m *memRepository) matching(filter Filter) []Order {
	var out []Order
	for _, o := range m.orders {
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		if filter.DesignerID != "" && (o.DesignerID == nil || *o.DesignerID != filter.DesignerID) {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !strings.HasPrefix(o.ID.String(), filter.Search) {
			continue
		}
		out = append(out, *o.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memRepository) FetchOrders(_ context.Context, filter Filter, _ Sort, limit, offset int) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(filter)
	if offset >= len(all) {
		return []Order{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memRepository) CountOrders(_ context.Context, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.matching(filter))), nil
}

func (m *memRepository) StatusSummary(context.Context, *time.Time, *time.Time) ([]StatusTotal, error) {
	return nil, errors.New("not implemented")
}

// rollbackTx restores the repository and recorder when fn fails, like a
// database transaction would.
type rollbackTx struct {
	repo *memRepository
	rec  *fakeRecorder
}

func (t *rollbackTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	orders := t.repo.snapshot()
	entries := t.rec.count()
	if err := fn(ctx); err != nil {
		t.repo.restore(orders)
		t.rec.truncate(entries)
		return err
	}
	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
	failOn  string
}

func (r *fakeRecorder) RecordChange(_ context.Context, c audit.Change) (*audit.Entry, error) {
	if r.failOn != "" && r.failOn == c.Field {
		return nil, errors.New("audit store unavailable")
	}
	prev, err := audit.Canonicalize(c.Previous)
	if err != nil {
		return nil, err
	}
	next, err := audit.Canonicalize(c.New)
	if err != nil {
		return nil, err
	}
	if string(prev) == string(next) {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := audit.Entry{
		ID:            uuid.NewString(),
		OrderID:       c.OrderID,
		Field:         c.Field,
		PreviousValue: prev,
		NewValue:      next,
		ChangedBy:     c.ChangedBy,
		Comment:       c.Comment,
	}
	r.entries = append(r.entries, e)
	return &e, nil
}

func (r *fakeRecorder) Trail(_ context.Context, orderID uuid.UUID, page pagination.Params) (*pagination.Result[audit.Entry], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Entry
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return pagination.NewResult(out, int64(len(out)), page), nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *fakeRecorder) truncate(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:n]
}

func (r *fakeRecorder) fields(orderID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e.Field)
		}
	}
	return out
}

type fakeCatalog map[string]*product.Product

func (c fakeCatalog) GetProduct(_ context.Context, id string) (*product.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeGateway struct {
	calls []payment.CheckoutRequest
	err   error
}

func (g *fakeGateway) InitiateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Checkout{Provider: "stripe", IntentID: "pi_" + req.OrderID, ClientSecret: "secret_" + req.OrderID}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type fakeCommissions map[uuid.UUID]*Commission

func (f fakeCommissions) GetCommission(_ context.Context, id uuid.UUID) (*Commission, error) {
	c, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("%w: custom order not found", apperror.ErrNotFound)
	}
	return c, nil
}
