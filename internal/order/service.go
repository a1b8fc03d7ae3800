// Package order is the order aggregate: the customer cart, checkout, the
// status transition table and audited field updates.
//
// Every mutation follows the same path: lock the row, apply the change to a
// copy, diff the copy against the stored order, then save and write one audit
// record per changed field in a single transaction.
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"couture-be/internal/audit"
	"couture-be/internal/auth"
	"couture-be/internal/db"
	"couture-be/internal/events"
	"couture-be/internal/logger"
	"couture-be/internal/metrics"
	"couture-be/internal/money"
	"couture-be/internal/pagination"
	"couture-be/internal/payment"
	"couture-be/internal/product"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("couture-be/internal/order")

// CommissionLookup resolves the custom order an order is linked to.
type CommissionLookup interface {
	GetCommission(ctx context.Context, id uuid.UUID) (*Commission, error)
}

type Service interface {
	GetOrCreateCart(ctx context.Context, actor auth.Principal) (*Order, error)
	AddItem(ctx context.Context, actor auth.Principal, productID string, quantity int) (*Order, error)
	RemoveItem(ctx context.Context, actor auth.Principal, productID string) (*Order, error)
	Checkout(ctx context.Context, actor auth.Principal, in CheckoutInput) (*CheckoutResult, error)
	ListOrders(ctx context.Context, actor auth.Principal, filter Filter, sort Sort, page pagination.Params) (*pagination.Result[Order], error)
	GetOrder(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Order, error)
	UpdateFields(ctx context.Context, actor auth.Principal, id uuid.UUID, cmds []Command, comment string) (*Order, error)
	LinkCustomOrder(ctx context.Context, actor auth.Principal, id, customOrderID uuid.UUID) (*Order, error)
	AuditTrail(ctx context.Context, actor auth.Principal, id uuid.UUID, page pagination.Params) (*pagination.Result[audit.Entry], error)
}

// Deps bundles the collaborators of the order service.
type Deps struct {
	Repo        Repository
	Tx          db.TxRunner
	Audit       audit.Recorder
	Catalog     product.Catalog
	Payments    payment.Gateway
	Commissions CommissionLookup
	Events      events.Publisher
	Metrics     *metrics.Metrics
	Currencies  *money.Registry
	Clock       func() time.Time
}

type service struct {
	repo        Repository
	tx          db.TxRunner
	audit       audit.Recorder
	catalog     product.Catalog
	payments    payment.Gateway
	commissions CommissionLookup
	events      events.Publisher
	metrics     *metrics.Metrics
	currencies  *money.Registry
	clock       func() time.Time
}

func NewService(deps Deps) Service {
	s := &service{
		repo:        deps.Repo,
		tx:          deps.Tx,
		audit:       deps.Audit,
		catalog:     deps.Catalog,
		payments:    deps.Payments,
		commissions: deps.Commissions,
		events:      deps.Events,
		metrics:     deps.Metrics,
		currencies:  deps.Currencies,
		clock:       deps.Clock,
	}
	if s.events == nil {
		s.events = events.Noop()
	}
	if s.payments == nil {
		s.payments = payment.Disabled()
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

func requireCustomer(actor auth.Principal) error {
	if actor.ID == "" {
		return ErrNotAuthenticated
	}
	if !actor.IsCustomer() {
		return ErrNotCartOwner
	}
	return nil
}

func canView(actor auth.Principal, o *Order) bool {
	return actor.IsAdmin() ||
		(actor.IsCustomer() && o.isOwnedBy(actor.ID)) ||
		(actor.IsDesigner() && o.isAssignedTo(actor.ID))
}

func (s *service) GetOrCreateCart(ctx context.Context, actor auth.Principal) (out *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.GetOrCreateCart")
	defer func() { endSpan(span, err) }()

	if err := requireCustomer(actor); err != nil {
		return nil, err
	}
	return s.getOrCreateCart(ctx, actor)
}

// getOrCreateCart searches before creating. A concurrent create loses on the
// one-cart-per-customer index and re-reads the winner.
func (s *service) getOrCreateCart(ctx context.Context, actor auth.Principal) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetOrCreateCart"),
		zap.String("customer_id", actor.ID),
	)

	cart, err := s.repo.FindCartByCustomer(ctx, actor.ID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrOrderNotFound) {
		return nil, err
	}

	cart = s.newCart(actor)
	err = s.repo.Create(ctx, cart)
	if errors.Is(err, errCartExists) {
		log.Debug("cart created concurrently, reloading")
		return s.repo.FindCartByCustomer(ctx, actor.ID)
	}
	if err != nil {
		log.Error("failed to create cart", zap.Error(err))
		return nil, err
	}

	log.Info("cart created", zap.String("order_id", cart.ID.String()))
	return cart, nil
}

// newCart builds an empty, unsaved cart for actor.
func (s *service) newCart(actor auth.Principal) *Order {
	now := s.now()
	return &Order{
		ID:         uuid.New(),
		CustomerID: actor.ID,
		Type:       TypeStandard,
		Status:     StatusCart,
		Items:      []Item{},
		Currency:   s.currencies.Preferred(actor.PreferredCurrency),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func recomputeTotals(o *Order) {
	lines := make([]money.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, money.Line{UnitPriceCents: it.UnitPriceCents, Quantity: it.Quantity})
	}
	t := money.ComputeTotals(lines)
	o.SubtotalCents = t.SubtotalCents
	o.TaxCents = t.TaxCents
	o.ShippingCents = t.ShippingCents
	o.TotalCents = t.TotalCents
}

func (s *service) AddItem(ctx context.Context, actor auth.Principal, productID string, quantity int) (out *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.AddItem", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer func() { endSpan(span, err) }()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddItem"),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
	)

	if err := requireCustomer(actor); err != nil {
		return nil, err
	}

	// 1. Validate input
	if quantity < 1 || quantity > MaxItemQuantity {
		log.Warn("invalid quantity")
		return nil, ErrInvalidQuantity
	}

	// 2. Look up product
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	currency, ok := s.currencies.Normalize(p.Currency)
	if !ok {
		log.Warn("product currency not supported", zap.String("currency", p.Currency))
		return nil, ErrUnsupportedCurrency
	}

	// 3. Resolve cart
	cart, err := s.getOrCreateCart(ctx, actor)
	if err != nil {
		return nil, err
	}

	// 4. Merge and persist
	out, _, err = s.mutate(ctx, cart.ID, actor, "", nil, func(current, next *Order) error {
		if current.Status != StatusCart {
			return ErrCartClosed
		}
		if current.CustomOrderID != nil {
			return ErrLinkedOrderItems
		}
		if len(current.Items) > 0 && current.Currency != currency {
			return ErrMixedCurrency
		}

		merged := false
		for i := range next.Items {
			if next.Items[i].ProductID == p.ID {
				next.Items[i].Quantity = min(next.Items[i].Quantity+quantity, MaxItemQuantity)
				merged = true
				break
			}
		}
		if !merged {
			next.Items = append(next.Items, Item{
				ProductID:      p.ID,
				Title:          p.Title,
				DesignerID:     p.DesignerID,
				UnitPriceCents: p.UnitPriceCents,
				Currency:       currency,
				Quantity:       quantity,
				ImageURL:       p.ImageURL,
			})
		}

		next.Currency = currency
		recomputeTotals(next)
		return nil
	})
	if err != nil {
		log.Warn("add item failed", zap.Error(err))
		return nil, err
	}

	return out, nil
}

func (s *service) RemoveItem(ctx context.Context, actor auth.Principal, productID string) (out *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.RemoveItem", trace.WithAttributes(attribute.String("product.id", productID)))
	defer func() { endSpan(span, err) }()

	if err := requireCustomer(actor); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindCartByCustomer(ctx, actor.ID)
	if errors.Is(err, ErrOrderNotFound) {
		// nothing to remove from; the empty view is not persisted
		return s.newCart(actor), nil
	}
	if err != nil {
		return nil, err
	}

	out, _, err = s.mutate(ctx, cart.ID, actor, "", nil, func(current, next *Order) error {
		if current.Status != StatusCart {
			return ErrCartClosed
		}
		if current.CustomOrderID != nil {
			return ErrLinkedOrderItems
		}
		kept := next.Items[:0]
		for _, it := range next.Items {
			if it.ProductID != productID {
				kept = append(kept, it)
			}
		}
		next.Items = kept
		recomputeTotals(next)
		return nil
	})
	return out, err
}

func (s *service) Checkout(ctx context.Context, actor auth.Principal, in CheckoutInput) (out *CheckoutResult, err error) {
	ctx, span := tracer.Start(ctx, "order.Checkout")
	defer func() { endSpan(span, err) }()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
	)

	if err := requireCustomer(actor); err != nil {
		return nil, err
	}

	// 1. Load cart
	cart, err := s.repo.FindCartByCustomer(ctx, actor.ID)
	if errors.Is(err, ErrOrderNotFound) {
		log.Warn("checkout without a cart")
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("order_id", cart.ID.String()))

	// 2. Validate. A linked cart is priced by its quote and may hold no items.
	if len(cart.Items) == 0 && cart.CustomOrderID == nil {
		log.Warn("checkout of empty cart")
		return nil, ErrEmptyCart
	}
	address, err := normalizeAddress(in.ShippingAddress)
	if err != nil {
		return nil, err
	}

	// 3. Payment initiation, before anything is persisted
	checkout, err := s.payments.InitiateCheckout(ctx, payment.CheckoutRequest{
		OrderID:       cart.ID.String(),
		CustomerID:    cart.CustomerID,
		AmountCents:   cart.TotalCents,
		Currency:      cart.Currency,
		PaymentMethod: in.PaymentMethod,
	})
	if err != nil {
		log.Error("payment initiation failed", zap.Error(err))
		return nil, err
	}

	// 4. Transition cart -> pending_payment
	order, _, err := s.mutate(ctx, cart.ID, actor, "checkout", []string{"status"}, func(current, next *Order) error {
		if current.Status != StatusCart {
			return ErrCartClosed
		}
		if current.TotalCents != cart.TotalCents || current.Currency != cart.Currency {
			return ErrCartChanged
		}
		if err := (SetStatus{Status: StatusPendingPayment}).apply(next); err != nil {
			return err
		}
		if address != nil {
			next.ShippingAddress = address
		}
		next.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
		return nil
	})
	if err != nil {
		log.Error("checkout failed", zap.Error(err))
		return nil, err
	}

	log.Info("checkout completed", zap.Int64("total_cents", order.TotalCents))

	return &CheckoutResult{
		Order:        order,
		Provider:     checkout.Provider,
		ClientSecret: checkout.ClientSecret,
	}, nil
}

func (s *service) ListOrders(ctx context.Context, actor auth.Principal, filter Filter, sort Sort, page pagination.Params) (out *pagination.Result[Order], err error) {
	ctx, span := tracer.Start(ctx, "order.ListOrders")
	defer func() { endSpan(span, err) }()

	switch {
	case actor.ID == "":
		return nil, ErrNotAuthenticated
	case actor.IsAdmin():
	case actor.IsDesigner():
		filter.DesignerID = actor.ID
	default:
		filter.CustomerID = actor.ID
		filter.DesignerID = ""
	}

	page = page.Normalize()
	if sort.Field == "" {
		sort = Sort{Field: SortCreatedAt, Desc: true}
	}

	orders, err := s.repo.FetchOrders(ctx, filter, sort, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountOrders(ctx, filter)
	if err != nil {
		return nil, err
	}

	return pagination.NewResult(orders, total, page), nil
}

func (s *service) GetOrder(ctx context.Context, actor auth.Principal, id uuid.UUID) (out *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.GetOrder", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer func() { endSpan(span, err) }()

	if actor.ID == "" {
		return nil, ErrNotAuthenticated
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, o) {
		return nil, ErrOrderAccessDenied
	}
	return o, nil
}

func (s *service) AuditTrail(ctx context.Context, actor auth.Principal, id uuid.UUID, page pagination.Params) (*pagination.Result[audit.Entry], error) {
	if _, err := s.GetOrder(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.audit.Trail(ctx, id, page)
}

func (s *service) UpdateFields(ctx context.Context, actor auth.Principal, id uuid.UUID, cmds []Command, comment string) (out *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.UpdateFields", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.Int("commands", len(cmds)),
	))
	defer func() { endSpan(span, err) }()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateFields"),
		zap.String("order_id", id.String()),
		zap.String("role", string(actor.Role)),
	)

	if actor.ID == "" {
		return nil, ErrNotAuthenticated
	}

	rejected := func(from, to Status) error {
		s.metrics.ObserveRejectedTransition(string(from), string(to))
		log.Warn("status transition rejected",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return ErrStatusTransitionNotAllowed
	}

	out, changes, err := s.mutate(ctx, id, actor, comment, nil, func(current, next *Order) error {
		if !canView(actor, current) {
			return ErrOrderAccessDenied
		}
		// the transition table is checked for every role before the role matrix
		for _, cmd := range cmds {
			c, ok := cmd.(SetStatus)
			if !ok {
				continue
			}
			if _, known := statusTransitions[c.Status]; !known {
				return ErrUnknownStatus
			}
			if !CanTransition(current.Status, c.Status) {
				return rejected(current.Status, c.Status)
			}
		}
		// authorization is judged on the stored order, before any command applies
		for _, cmd := range cmds {
			if err := authorize(actor, current, cmd); err != nil {
				log.Warn("command not allowed", zap.String("field", cmd.Field()))
				return err
			}
		}
		for _, cmd := range cmds {
			from := next.Status
			if err := cmd.apply(next); err != nil {
				if errors.Is(err, ErrStatusTransitionNotAllowed) {
					return rejected(from, cmd.(SetStatus).Status)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("order fields updated", zap.Int("changed_fields", len(changes)))
	return out, nil
}

func (s *service) LinkCustomOrder(ctx context.Context, actor auth.Principal, id, customOrderID uuid.UUID) (out *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.LinkCustomOrder", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("custom_order.id", customOrderID.String()),
	))
	defer func() { endSpan(span, err) }()

	if actor.ID == "" {
		return nil, ErrNotAuthenticated
	}

	commission, err := s.commissions.GetCommission(ctx, customOrderID)
	if err != nil {
		return nil, err
	}

	out, _, err = s.mutate(ctx, id, actor, "linked custom order", nil, func(current, next *Order) error {
		if !actor.IsAdmin() {
			if !actor.IsCustomer() || !current.isOwnedBy(actor.ID) || commission.CustomerID != actor.ID {
				return ErrOrderAccessDenied
			}
			if !current.Status.customerEditable() {
				return ErrCommandNotAllowed
			}
		}
		if commission.QuoteCents == nil || commission.DesignerID == nil {
			return ErrCommissionNotQuoted
		}
		currency, ok := s.currencies.Normalize(commission.Currency)
		if !ok {
			return ErrUnsupportedCurrency
		}

		linked := commission.ID
		designer := *commission.DesignerID
		next.CustomOrderID = &linked
		next.Type = TypeCustom
		next.DesignerID = &designer
		next.Currency = currency
		// a commission is priced by its quote, so the money fields stay consistent
		next.SubtotalCents = *commission.QuoteCents
		next.TaxCents = 0
		next.ShippingCents = 0
		next.TotalCents = *commission.QuoteCents
		return nil
	})
	return out, err
}
