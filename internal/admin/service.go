// Package admin is the back-office surface over orders. Every call requires
// the admin role; writes go through the order aggregate so they are audited
// the same way as any other change.
package admin

import (
	"context"
	"time"

	"couture-be/internal/audit"
	"couture-be/internal/auth"
	"couture-be/internal/logger"
	"couture-be/internal/order"
	"couture-be/internal/pagination"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	ListOrders(ctx context.Context, actor auth.Principal, filter order.Filter, sort order.Sort, page pagination.Params) (*pagination.Result[order.Order], error)
	GetOrder(ctx context.Context, actor auth.Principal, id uuid.UUID, includeAudit bool) (*OrderDetail, error)
	UpdateOrder(ctx context.Context, actor auth.Principal, id uuid.UUID, cmds []order.Command, comment string) (*order.Order, error)
	AuditTrail(ctx context.Context, actor auth.Principal, id uuid.UUID, page pagination.Params) (*pagination.Result[audit.Entry], error)
	Summary(ctx context.Context, actor auth.Principal, from, to *time.Time) (*Summary, error)
}

// SummaryStore aggregates orders per status.
type SummaryStore interface {
	StatusSummary(ctx context.Context, from, to *time.Time) ([]order.StatusTotal, error)
}

type service struct {
	orders  order.Service
	summary SummaryStore
}

func NewService(orders order.Service, summary SummaryStore) Service {
	return &service{orders: orders, summary: summary}
}

func requireAdmin(ctx context.Context, actor auth.Principal, method string) error {
	if actor.IsAdmin() {
		return nil
	}
	logger.FromCtx(ctx).Warn("admin access denied",
		zap.String("layer", "service"),
		zap.String("method", method),
		zap.String("actor_id", actor.ID),
		zap.String("role", string(actor.Role)),
	)
	return ErrAdminOnly
}

func (s *service) ListOrders(ctx context.Context, actor auth.Principal, filter order.Filter, sort order.Sort, page pagination.Params) (*pagination.Result[order.Order], error) {
	if err := requireAdmin(ctx, actor, "ListOrders"); err != nil {
		return nil, err
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, ErrInvalidRange
	}
	return s.orders.ListOrders(ctx, actor, filter, sort, page)
}

func (s *service) GetOrder(ctx context.Context, actor auth.Principal, id uuid.UUID, includeAudit bool) (*OrderDetail, error) {
	if err := requireAdmin(ctx, actor, "GetOrder"); err != nil {
		return nil, err
	}

	o, err := s.orders.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	detail := &OrderDetail{Order: o}
	if !includeAudit {
		return detail, nil
	}

	trail, err := s.orders.AuditTrail(ctx, actor, id, pagination.Params{})
	if err != nil {
		return nil, err
	}
	detail.Audit = trail
	return detail, nil
}

func (s *service) UpdateOrder(ctx context.Context, actor auth.Principal, id uuid.UUID, cmds []order.Command, comment string) (*order.Order, error) {
	if err := requireAdmin(ctx, actor, "UpdateOrder"); err != nil {
		return nil, err
	}
	return s.orders.UpdateFields(ctx, actor, id, cmds, comment)
}

func (s *service) AuditTrail(ctx context.Context, actor auth.Principal, id uuid.UUID, page pagination.Params) (*pagination.Result[audit.Entry], error) {
	if err := requireAdmin(ctx, actor, "AuditTrail"); err != nil {
		return nil, err
	}
	return s.orders.AuditTrail(ctx, actor, id, page)
}

func (s *service) Summary(ctx context.Context, actor auth.Principal, from, to *time.Time) (*Summary, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Summary"),
	)

	if err := requireAdmin(ctx, actor, "Summary"); err != nil {
		return nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, ErrInvalidRange
	}

	rows, err := s.summary.StatusSummary(ctx, from, to)
	if err != nil {
		log.Error("failed to summarise orders", zap.Error(err))
		return nil, err
	}

	out := &Summary{DateFrom: from, DateTo: to, ByStatus: rows}
	if out.ByStatus == nil {
		out.ByStatus = []order.StatusTotal{}
	}
	for _, r := range rows {
		out.TotalOrders += r.Count
		out.GrossTotalCents += r.TotalCents
	}
	return out, nil
}
