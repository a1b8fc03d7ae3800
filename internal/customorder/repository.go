package customorder

import (
	"context"
	"database/sql"
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

type Repository interface {
	Create(ctx context.Context, c *CustomOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*CustomOrder, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*CustomOrder, error)
	List(ctx context.Context, scope Scope, filter Filter, limit, offset int) ([]CustomOrder, error)
	Count(ctx context.Context, scope Scope, filter Filter) (int64, error)
	// Respond binds the designer and writes the response in one conditional
	// update. It returns ErrCustomOrderNotFound when no row matched the guard.
	Respond(ctx context.Context, id uuid.UUID, r response) (*CustomOrder, error)
	UpdateLifecycle(ctx context.Context, c *CustomOrder) error
	AppendImages(ctx context.Context, id uuid.UUID, urls []string, at time.Time) ([]string, error)
}

// Scope restricts listings to what the caller may see.
type Scope struct {
	CustomerID string
	// DesignerID sees its own assignments plus unassigned open requests.
	DesignerID string
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const columns = `
	id, customer_id, designer_id, title, description, measurements,
	inspiration_images, budget_cents, quote_cents, deposit_cents,
	estimated_delivery_days, currency, status, progress_step, payment_status,
	tracking_url, designer_note, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomOrder(row rowScanner) (*CustomOrder, error) {
	var (
		c            CustomOrder
		designerID   sql.NullString
		measurements []byte
		images       pq.StringArray
		budget       sql.NullInt64
		quote        sql.NullInt64
		deposit      sql.NullInt64
		days         sql.NullInt32
		tracking     sql.NullString
	)

	if err := row.Scan(
		&c.ID,
		&c.CustomerID,
		&designerID,
		&c.Title,
		&c.Description,
		&measurements,
		&images,
		&budget,
		&quote,
		&deposit,
		&days,
		&c.Currency,
		&c.Status,
		&c.ProgressStep,
		&c.PaymentStatus,
		&tracking,
		&c.DesignerNote,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if designerID.Valid {
		c.DesignerID = &designerID.String
	}
	if len(measurements) > 0 {
		c.Measurements = measurements
	}
	c.InspirationImages = []string(images)
	if c.InspirationImages == nil {
		c.InspirationImages = []string{}
	}
	if budget.Valid {
		c.BudgetCents = &budget.Int64
	}
	if quote.Valid {
		c.QuoteCents = &quote.Int64
	}
	if deposit.Valid {
		c.DepositCents = &deposit.Int64
	}
	if days.Valid {
		d := int(days.Int32)
		c.EstimatedDeliveryDays = &d
	}
	if tracking.Valid {
		c.TrackingURL = &tracking.String
	}
	c.Currency = strings.TrimSpace(c.Currency)

	return &c, nil
}

func (r *repository) Create(ctx context.Context, c *CustomOrder) error {
	var measurements any
	if len(c.Measurements) > 0 {
		measurements = []byte(c.Measurements)
	}

	_, err := db.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO custom_orders (`+columns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`,
		c.ID,
		c.CustomerID,
		c.DesignerID,
		c.Title,
		c.Description,
		measurements,
		pq.Array(c.InspirationImages),
		c.BudgetCents,
		c.QuoteCents,
		c.DepositCents,
		c.EstimatedDeliveryDays,
		c.Currency,
		c.Status,
		c.ProgressStep,
		c.PaymentStatus,
		c.TrackingURL,
		c.DesignerNote,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert custom order",
			zap.String("layer", "repository"),
			zap.String("method", "Create"),
			zap.Error(err),
		)
		return apperror.Storage(err)
	}
	return nil
}

func (r *repository) getOne(ctx context.Context, query string, args ...any) (*CustomOrder, error) {
	c, err := scanCustomOrder(db.Executor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomOrderNotFound
	}
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return c, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*CustomOrder, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM custom_orders WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*CustomOrder, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM custom_orders WHERE id = $1 FOR UPDATE`, id)
}

func whereClause(scope Scope, filter Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if scope.CustomerID != "" {
		args = append(args, scope.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if scope.DesignerID != "" {
		args = append(args, scope.DesignerID)
		conds = append(conds, fmt.Sprintf("(designer_id = $%d OR (designer_id IS NULL AND status = 'requested'))", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *repository) List(ctx context.Context, scope Scope, filter Filter, limit, offset int) ([]CustomOrder, error) {
	where, args := whereClause(scope, filter)
	query := `SELECT ` + columns + ` FROM custom_orders` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := db.Executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list custom orders",
			zap.String("layer", "repository"),
			zap.String("method", "List"),
			zap.Error(err),
		)
		return nil, apperror.Storage(err)
	}
	defer rows.Close()

	out := []CustomOrder{}
	for rows.Next() {
		c, err := scanCustomOrder(rows)
		if err != nil {
			return nil, apperror.Storage(err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage(err)
	}
	return out, nil
}

func (r *repository) Count(ctx context.Context, scope Scope, filter Filter) (int64, error) {
	where, args := whereClause(scope, filter)

	var total int64
	if err := db.Executor(ctx, r.db).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM custom_orders`+where, args...).
		Scan(&total); err != nil {
		return 0, apperror.Storage(err)
	}
	return total, nil
}

// Respond only matches while the row is unassigned or already bound to the
// same designer, and still open for a response.
func (r *repository) Respond(ctx context.Context, id uuid.UUID, resp response) (*CustomOrder, error) {
	c, err := scanCustomOrder(db.Executor(ctx, r.db).QueryRowContext(ctx, `
		UPDATE custom_orders SET
			designer_id = $2,
			status = $3,
			quote_cents = COALESCE($4, quote_cents),
			deposit_cents = COALESCE($5, deposit_cents),
			estimated_delivery_days = COALESCE($6, estimated_delivery_days),
			designer_note = $7,
			updated_at = $8
		WHERE id = $1
			AND (designer_id IS NULL OR designer_id = $2)
			AND status IN ('requested', 'quoted', 'rejected')
		RETURNING `+columns,
		id,
		resp.DesignerID,
		resp.Status,
		resp.QuoteCents,
		resp.DepositCents,
		resp.EstimatedDeliveryDays,
		resp.Note,
		resp.UpdatedAt,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to respond to custom order",
			zap.String("layer", "repository"),
			zap.String("method", "Respond"),
			zap.String("custom_order_id", id.String()),
			zap.Error(err),
		)
		return nil, apperror.Storage(err)
	}
	return c, nil
}

func (r *repository) UpdateLifecycle(ctx context.Context, c *CustomOrder) error {
	res, err := db.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE custom_orders SET
			status = $2,
			progress_step = $3,
			payment_status = $4,
			tracking_url = $5,
			updated_at = $6
		WHERE id = $1
	`, c.ID, c.Status, c.ProgressStep, c.PaymentStatus, c.TrackingURL, c.UpdatedAt)
	if err != nil {
		return apperror.Storage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage(err)
	}
	if n == 0 {
		return ErrCustomOrderNotFound
	}
	return nil
}

// AppendImages concatenates in SQL so concurrent appends never overwrite each other.
func (r *repository) AppendImages(ctx context.Context, id uuid.UUID, urls []string, at time.Time) ([]string, error) {
	var images pq.StringArray
	err := db.Executor(ctx, r.db).QueryRowContext(ctx, `
		UPDATE custom_orders
		SET inspiration_images = COALESCE(inspiration_images, '{}') || $2::text[],
			updated_at = $3
		WHERE id = $1
		RETURNING inspiration_images
	`, id, pq.Array(urls), at).Scan(&images)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomOrderNotFound
	}
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return []string(images), nil
}
