package audit

import (
	"context"
	"database/sql"

	"couture-be/internal/apperror"
	"couture-be/internal/db"
	"couture-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]Entry, error)
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

// Insert appends e. Inside db.TxRunner it joins the caller's transaction.
func (r *repository) Insert(ctx context.Context, e *Entry) error {
	_, err := db.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO order_audit_logs (
			id, order_id, field, previous_value, new_value,
			changed_by, comment, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		e.ID,
		e.OrderID,
		e.Field,
		[]byte(e.PreviousValue),
		[]byte(e.NewValue),
		e.ChangedBy,
		e.Comment,
		e.CreatedAt,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert audit record",
			zap.String("layer", "repository"),
			zap.String("order_id", e.OrderID.String()),
			zap.String("field", e.Field),
			zap.Error(err),
		)
		return apperror.Storage(err)
	}
	return nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]Entry, error) {
	rows, err := db.Executor(ctx, r.db).QueryContext(ctx, `
		SELECT id, order_id, field, previous_value, new_value, changed_by, comment, created_at
		FROM order_audit_logs
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, orderID, limit, offset)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			prev, nxt []byte
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Field, &prev, &nxt, &e.ChangedBy, &e.Comment, &e.CreatedAt); err != nil {
			return nil, apperror.Storage(err)
		}
		e.PreviousValue = prev
		e.NewValue = nxt
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage(err)
	}

	return entries, nil
}

func (r *repository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var total int64
	err := db.Executor(ctx, r.db).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM order_audit_logs WHERE order_id = $1`, orderID).
		Scan(&total)
	if err != nil {
		return 0, apperror.Storage(err)
	}
	return total, nil
}
