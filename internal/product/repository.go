package product

import (
	"context"
	"database/sql"
	"errors"

	"couture-be/internal/apperror"
	"couture-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetByID returns an active product. Inactive products are treated as missing.
func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	var (
		p        Product
		imageURL sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, designer_id, unit_price_cents, currency, image_url
		FROM products
		WHERE id = $1 AND active = TRUE
	`, id).Scan(&p.ID, &p.Title, &p.DesignerID, &p.UnitPriceCents, &p.Currency, &imageURL)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load product",
			zap.String("layer", "repository"),
			zap.String("method", "GetByID"),
			zap.String("product_id", id),
			zap.Error(err),
		)
		return nil, apperror.Storage(err)
	}

	if imageURL.Valid && imageURL.String != "" {
		p.ImageURL = &imageURL.String
	}

	return &p, nil
}
