// Package product is the read-only catalog lookup used when pricing cart items.
package product

import (
	"context"
	"strings"

	"couture-be/internal/logger"

	"go.uber.org/zap"
)

// Catalog resolves products for the order aggregate.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Catalog {
	return &service{repo: repo}
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logger.FromCtx(ctx).Warn("product lookup failed",
			zap.String("layer", "service"),
			zap.String("method", "GetProduct"),
			zap.String("product_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	return p, nil
}
