// Package customorder is the commission flow: a customer request, a single
// designer's quote or rejection, then status updates by that designer or an
// admin. Status here is a free enum write; only the actor is checked.
package customorder

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"couture-be/internal/auth"
	"couture-be/internal/db"
	"couture-be/internal/events"
	"couture-be/internal/logger"
	"couture-be/internal/metrics"
	"couture-be/internal/money"
	"couture-be/internal/pagination"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("couture-be/internal/customorder")

type Service interface {
	CreateRequest(ctx context.Context, actor auth.Principal, in CreateInput) (*CustomOrder, error)
	List(ctx context.Context, actor auth.Principal, filter Filter, page pagination.Params) (*pagination.Result[CustomOrder], error)
	Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*CustomOrder, error)
	Respond(ctx context.Context, actor auth.Principal, id uuid.UUID, in RespondInput) (*CustomOrder, error)
	UpdateStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, patch StatusPatch) (*CustomOrder, error)
	AttachAssets(ctx context.Context, actor auth.Principal, id uuid.UUID, urls []string) (*CustomOrder, error)
}

type Deps struct {
	Repo       Repository
	Tx         db.TxRunner
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Currencies *money.Registry
	Clock      func() time.Time
}

type service struct {
	repo       Repository
	tx         db.TxRunner
	events     events.Publisher
	metrics    *metrics.Metrics
	currencies *money.Registry
	clock      func() time.Time
}

func NewService(deps Deps) Service {
	s := &service{
		repo:       deps.Repo,
		tx:         deps.Tx,
		events:     deps.Events,
		metrics:    deps.Metrics,
		currencies: deps.Currencies,
		clock:      deps.Clock,
	}
	if s.events == nil {
		s.events = events.Noop()
	}
	if s.currencies == nil {
		s.currencies = money.DefaultRegistry(money.BaseCurrency)
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

func (s *service) now() time.Time {
	return s.clock().UTC()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// canView: owner, assigned designer, any designer while unassigned, admin.
func canView(actor auth.Principal, c *CustomOrder) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsCustomer():
		return c.CustomerID == actor.ID
	case actor.IsDesigner():
		return c.DesignerID == nil || *c.DesignerID == actor.ID
	}
	return false
}

func cleanURLs(urls []string) ([]string, error) {
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, ErrInvalidURL
		}
		out = append(out, raw)
	}
	return out, nil
}

func (s *service) CreateRequest(ctx context.Context, actor auth.Principal, in CreateInput) (out *CustomOrder, err error) {
	ctx, span := tracer.Start(ctx, "customorder.CreateRequest")
	defer func() { endSpan(span, err) }()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateRequest"),
	)

	if actor.ID == "" {
		return nil, ErrNotAuthenticated
	}
	if !actor.IsCustomer() {
		return nil, ErrCustomersOnly
	}

	// 1. Validate
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.BudgetCents != nil && *in.BudgetCents < 0 {
		return nil, ErrInvalidBudget
	}
	var measurements json.RawMessage
	if trimmed := strings.TrimSpace(string(in.Measurements)); trimmed != "" && trimmed != "null" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return nil, ErrInvalidMeasure
		}
		measurements = json.RawMessage(trimmed)
	}
	images, err := cleanURLs(in.InspirationImages)
	if err != nil {
		return nil, err
	}

	// 2. Build
	now := s.now()
	c := &CustomOrder{
		ID:                uuid.New(),
		CustomerID:        actor.ID,
		Title:             title,
		Description:       strings.TrimSpace(in.Description),
		Measurements:      measurements,
		InspirationImages: images,
		BudgetCents:       in.BudgetCents,
		Currency:          s.currencies.Preferred(actor.PreferredCurrency),
		Status:            StatusRequested,
		ProgressStep:      StepBrief,
		PaymentStatus:     PaymentPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// 3. Persist
	if err := s.repo.Create(ctx, c); err != nil {
		log.Error("failed to create custom order", zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveCustomOrderEvent("requested")
	log.Info("custom order requested",
		zap.String("custom_order_id", c.ID.String()),
		zap.String("currency", c.Currency),
	)
	return c, nil
}

func (s *service) List(ctx context.Context, actor auth.Principal, filter Filter, page pagination.Params) (*pagination.Result[CustomOrder], error) {
	var scope Scope
	switch {
	case actor.ID == "":
		return nil, ErrNotAuthenticated
	case actor.IsAdmin():
	case actor.IsDesigner():
		scope.DesignerID = actor.ID
	default:
		scope.CustomerID = actor.ID
	}

	page = page.Normalize()
	items, err := s.repo.List(ctx, scope, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	return pagination.NewResult(items, total, page), nil
}

func (s *service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*CustomOrder, error) {
	if actor.ID == "" {
		return nil, ErrNotAuthenticated
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, c) {
		return nil, ErrAccessDenied
	}
	return c, nil
}

func validateResponse(in RespondInput) (Status, error) {
	switch in.Action {
	case ActionReject:
		return StatusRejected, nil
	case ActionAccept:
	default:
		return "", ErrInvalidAction
	}

	if in.QuoteCents == nil || in.EstimatedDeliveryDays == nil {
		return "", ErrQuoteRequired
	}
	if *in.QuoteCents <= 0 || *in.EstimatedDeliveryDays <= 0 {
		return "", ErrInvalidQuote
	}
	if in.DepositCents != nil && (*in.DepositCents < 0 || *in.DepositCents > *in.QuoteCents) {
		return "", ErrInvalidDeposit
	}
	return StatusQuoted, nil
}

func claimedByOther(c *CustomOrder, actor auth.Principal) bool {
	return c.DesignerID != nil && *c.DesignerID != actor.ID
}

// Respond is first-responder-wins. The designer binding happens in one
// conditional update, so two racing designers cannot both win.
func (s *service) Respond(ctx context.Context, actor auth.Principal, id uuid.UUID, in RespondInput) (out *CustomOrder, err error) {
	ctx, span := tracer.Start(ctx, "customorder.Respond", trace.WithAttributes(
		attribute.String("custom_order.id", id.String()),
		attribute.String("action", string(in.Action)),
	))
	defer func() { endSpan(span, err) }()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Respond"),
		zap.String("custom_order_id", id.String()),
		zap.String("designer_id", actor.ID),
		zap.String("action", string(in.Action)),
	)

	if actor.ID == "" {
		return nil, ErrNotAuthenticated
	}
	if !actor.IsDesigner() {
		return nil, ErrDesignersOnly
	}

	in.Action = Action(strings.ToLower(strings.TrimSpace(string(in.Action))))
	status, err := validateResponse(in)
	if err != nil {
		// a claimed commission is closed to other designers whatever they send
		current, getErr := s.repo.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if claimedByOther(current, actor) {
			log.Warn("custom order already claimed", zap.String("assigned_to", *current.DesignerID))
			return nil, ErrAlreadyClaimed
		}
		log.Warn("invalid response", zap.Error(err))
		return nil, err
	}

	resp := response{
		DesignerID: actor.ID,
		Status:     status,
		Note:       strings.TrimSpace(in.Note),
		UpdatedAt:  s.now(),
	}
	if status == StatusQuoted {
		resp.QuoteCents = in.QuoteCents
		resp.DepositCents = in.DepositCents
		resp.EstimatedDeliveryDays = in.EstimatedDeliveryDays
	}

	c, err := s.repo.Respond(ctx, id, resp)
	if errors.Is(err, ErrCustomOrderNotFound) {
		// the guard did not match; find out why
		current, getErr := s.repo.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if claimedByOther(current, actor) {
			log.Warn("custom order already claimed", zap.String("assigned_to", *current.DesignerID))
			return nil, ErrAlreadyClaimed
		}
		return nil, ErrNotRespondable
	}
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCustomOrderEvent("responded")
	s.publish(ctx, events.Event{
		Type:          events.CustomOrderResponded,
		AggregateType: "custom_order",
		AggregateID:   c.ID.String(),
		CurrentStatus: string(c.Status),
		ActorID:       actor.ID,
		OccurredAt:    c.UpdatedAt,
		Metadata:      map[string]string{"action": string(in.Action)},
	})

	log.Info("custom order responded", zap.String("status", string(c.Status)))
	return c, nil
}

func applyPatch(c *CustomOrder, patch StatusPatch) error {
	if patch.Status != nil {
		st, ok := ParseStatus(string(*patch.Status))
		if !ok {
			return ErrInvalidStatus
		}
		c.Status = st
	}
	if patch.ProgressStep != nil {
		step, ok := ParseProgressStep(string(*patch.ProgressStep))
		if !ok {
			return ErrInvalidProgress
		}
		c.ProgressStep = step
	}
	if patch.PaymentStatus != nil {
		ps, ok := ParsePaymentStatus(string(*patch.PaymentStatus))
		if !ok {
			return ErrInvalidPayment
		}
		c.PaymentStatus = ps
	}
	if patch.TrackingURL != nil {
		raw := strings.TrimSpace(*patch.TrackingURL)
		if raw == "" {
			c.TrackingURL = nil
		} else {
			urls, err := cleanURLs([]string{raw})
			if err != nil {
				return err
			}
			c.TrackingURL = &urls[0]
		}
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, patch StatusPatch) (out *CustomOrder, err error) {
	ctx, span := tracer.Start(ctx, "customorder.UpdateStatus", trace.WithAttributes(attribute.String("custom_order.id", id.String())))
	defer func() { endSpan(span, err) }()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.String("custom_order_id", id.String()),
	)

	if actor.ID == "" {
		return nil, ErrNotAuthenticated
	}

	var previous Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !(actor.IsDesigner() && current.isAssignedTo(actor.ID)) {
			return ErrNotAssignedOrAdmin
		}

		previous = current.Status
		next := *current
		if err := applyPatch(&next, patch); err != nil {
			return err
		}
		if next.Status == current.Status &&
			next.ProgressStep == current.ProgressStep &&
			next.PaymentStatus == current.PaymentStatus &&
			equalPtr(next.TrackingURL, current.TrackingURL) {
			out = current
			return nil
		}

		next.UpdatedAt = s.now()
		if err := s.repo.UpdateLifecycle(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		log.Warn("status update failed", zap.Error(err))
		return nil, err
	}

	if out.Status != previous {
		s.metrics.ObserveCustomOrderEvent("status_changed")
		s.publish(ctx, events.Event{
			Type:           events.CustomOrderStatusChanged,
			AggregateType:  "custom_order",
			AggregateID:    out.ID.String(),
			PreviousStatus: string(previous),
			CurrentStatus:  string(out.Status),
			ActorID:        actor.ID,
			OccurredAt:     out.UpdatedAt,
		})
	}

	return out, nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *service) AttachAssets(ctx context.Context, actor auth.Principal, id uuid.UUID, urls []string) (*CustomOrder, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AttachAssets"),
		zap.String("custom_order_id", id.String()),
	)

	if actor.ID == "" {
		return nil, ErrNotAuthenticated
	}

	clean, err := cleanURLs(urls)
	if err != nil {
		return nil, err
	}
	if len(clean) == 0 {
		return nil, ErrNoAssets
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := actor.IsCustomer() && current.CustomerID == actor.ID
	assigned := actor.IsDesigner() && current.isAssignedTo(actor.ID)
	if !owner && !assigned {
		return nil, ErrAccessDenied
	}

	now := s.now()
	images, err := s.repo.AppendImages(ctx, id, clean, now)
	if err != nil {
		log.Error("failed to append images", zap.Error(err))
		return nil, err
	}

	current.InspirationImages = images
	current.UpdatedAt = now
	log.Info("assets attached", zap.Int("added", len(clean)), zap.Int("total", len(images)))
	return current, nil
}

func (s *service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish custom order event",
			zap.String("event_type", e.Type),
			zap.String("custom_order_id", e.AggregateID),
			zap.Error(err),
		)
	}
}
