package customorder

import (
	"context"

	"couture-be/internal/order"

	"github.com/google/uuid"
)

type commissionLookup struct {
	repo Repository
}

// NewCommissionLookup exposes custom orders to the order aggregate for linking.
func NewCommissionLookup(repo Repository) order.CommissionLookup {
	return commissionLookup{repo: repo}
}

func (l commissionLookup) GetCommission(ctx context.Context, id uuid.UUID) (*order.Commission, error) {
	c, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &order.Commission{
		ID:         c.ID,
		CustomerID: c.CustomerID,
		DesignerID: c.DesignerID,
		QuoteCents: c.QuoteCents,
		Currency:   c.Currency,
	}, nil
}
