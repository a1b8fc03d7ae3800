package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"couture-be/internal/apperror"
	"couture-be/internal/db"
	"couture-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// GetForUpdate row-locks the order for the rest of the surrounding transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	FindCartByCustomer(ctx context.Context, customerID string) (*Order, error)
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	FetchOrders(ctx context.Context, filter Filter, sort Sort, limit, offset int) ([]Order, error)
	CountOrders(ctx context.Context, filter Filter) (int64, error)
	StatusSummary(ctx context.Context, from, to *time.Time) ([]StatusTotal, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	o.id, o.customer_id, o.designer_id, o.custom_order_id, o.type, o.status,
	o.items, o.subtotal_cents, o.tax_cents, o.shipping_cents, o.total_cents,
	o.currency, o.shipping_address, o.payment_method, o.notes,
	o.created_at, o.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o             Order
		designerID    sql.NullString
		customOrderID uuid.NullUUID
		items         []byte
		address       []byte
	)

	if err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&designerID,
		&customOrderID,
		&o.Type,
		&o.Status,
		&items,
		&o.SubtotalCents,
		&o.TaxCents,
		&o.ShippingCents,
		&o.TotalCents,
		&o.Currency,
		&address,
		&o.PaymentMethod,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if designerID.Valid {
		o.DesignerID = &designerID.String
	}
	if customOrderID.Valid {
		o.CustomOrderID = &customOrderID.UUID
	}
	o.Items = []Item{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
	}
	if len(address) > 0 {
		o.ShippingAddress = json.RawMessage(address)
	}
	o.Currency = strings.TrimSpace(o.Currency)

	return &o, nil
}

func (r *repository) getOne(ctx context.Context, method, query string, args ...any) (*Order, error) {
	o, err := scanOrder(db.Executor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load order",
			zap.String("layer", "repository"),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, apperror.Storage(err)
	}
	return o, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, "GetByID",
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, "GetForUpdate",
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1 FOR UPDATE`, id)
}

func (r *repository) FindCartByCustomer(ctx context.Context, customerID string) (*Order, error) {
	return r.getOne(ctx, "FindCartByCustomer",
		`SELECT `+orderColumns+` FROM orders o WHERE o.customer_id = $1 AND o.status = 'cart' LIMIT 1`, customerID)
}

func nullableAddress(addr json.RawMessage) any {
	if len(addr) == 0 {
		return nil
	}
	return []byte(addr)
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	_, err = db.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, designer_id, custom_order_id, type, status,
			items, subtotal_cents, tax_cents, shipping_cents, total_cents,
			currency, shipping_address, payment_method, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		o.ID,
		o.CustomerID,
		o.DesignerID,
		o.CustomOrderID,
		o.Type,
		o.Status,
		items,
		o.SubtotalCents,
		o.TaxCents,
		o.ShippingCents,
		o.TotalCents,
		o.Currency,
		nullableAddress(o.ShippingAddress),
		o.PaymentMethod,
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errCartExists
		}
		logger.FromCtx(ctx).Error("failed to insert order",
			zap.String("layer", "repository"),
			zap.String("method", "Create"),
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return apperror.Storage(err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	res, err := db.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE orders SET
			designer_id = $2,
			custom_order_id = $3,
			type = $4,
			status = $5,
			items = $6,
			subtotal_cents = $7,
			tax_cents = $8,
			shipping_cents = $9,
			total_cents = $10,
			currency = $11,
			shipping_address = $12,
			payment_method = $13,
			notes = $14,
			updated_at = $15
		WHERE id = $1
	`,
		o.ID,
		o.DesignerID,
		o.CustomOrderID,
		o.Type,
		o.Status,
		items,
		o.SubtotalCents,
		o.TaxCents,
		o.ShippingCents,
		o.TotalCents,
		o.Currency,
		nullableAddress(o.ShippingAddress),
		o.PaymentMethod,
		o.Notes,
		o.UpdatedAt,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update order",
			zap.String("layer", "repository"),
			zap.String("method", "Update"),
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return apperror.Storage(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage(err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// likeEscaper makes a search term match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause renders filter as a WHERE clause starting at placeholder $1.
func whereClause(filter Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CustomerID != "" {
		add("o.customer_id = $%d", filter.CustomerID)
	}
	if filter.DesignerID != "" {
		add("o.designer_id = $%d", filter.DesignerID)
	}
	if filter.Status != nil {
		add("o.status = $%d", string(*filter.Status))
	}
	if filter.Type != nil {
		add("o.type = $%d", string(*filter.Type))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		s = likeEscaper.Replace(s)
		args = append(args, s+"%", "%"+s+"%")
		conds = append(conds, fmt.Sprintf(`(o.id::text ILIKE $%d ESCAPE '\' OR o.customer_id ILIKE $%d ESCAPE '\')`, len(args)-1, len(args)))
	}
	if filter.DateFrom != nil {
		add("o.created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("o.created_at <= $%d", *filter.DateTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(sort Sort) string {
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	switch sort.Field {
	case SortTotal:
		return "o.total_cents " + dir + ", o.id " + dir
	default:
		return "o.created_at " + dir + ", o.id " + dir
	}
}

func (r *repository) FetchOrders(ctx context.Context, filter Filter, sort Sort, limit, offset int) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "FetchOrders"),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
	)

	where, args := whereClause(filter)
	query := `SELECT ` + orderColumns + ` FROM orders o` + where +
		` ORDER BY ` + orderBy(sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	log.Debug("executing fetch orders query", zap.String("query", query))

	rows, err := db.Executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, apperror.Storage(err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, apperror.Storage(err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, apperror.Storage(err)
	}

	return orders, nil
}

func (r *repository) CountOrders(ctx context.Context, filter Filter) (int64, error) {
	where, args := whereClause(filter)

	var total int64
	err := db.Executor(ctx, r.db).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).
		Scan(&total)
	if err != nil {
		return 0, apperror.Storage(err)
	}
	return total, nil
}

func (r *repository) StatusSummary(ctx context.Context, from, to *time.Time) ([]StatusTotal, error) {
	where, args := whereClause(Filter{DateFrom: from, DateTo: to})

	rows, err := db.Executor(ctx, r.db).QueryContext(ctx, `
		SELECT o.status, COUNT(*), COALESCE(SUM(o.total_cents), 0)
		FROM orders o`+where+`
		GROUP BY o.status
		ORDER BY o.status
	`, args...)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	defer rows.Close()

	out := []StatusTotal{}
	for rows.Next() {
		var st StatusTotal
		if err := rows.Scan(&st.Status, &st.Count, &st.TotalCents); err != nil {
			return nil, apperror.Storage(err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage(err)
	}
	return out, nil
}
