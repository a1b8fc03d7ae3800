package admin

import (
	"time"

	"couture-be/internal/audit"
	"couture-be/internal/order"
	"couture-be/internal/pagination"
)

// OrderDetail is an order with the first page of its audit trail.
type OrderDetail struct {
	Order *order.Order                    `json:"order"`
	Audit *pagination.Result[audit.Entry] `json:"audit,omitempty"`
}

type Summary struct {
	DateFrom        *time.Time          `json:"dateFrom,omitempty"`
	DateTo          *time.Time          `json:"dateTo,omitempty"`
	ByStatus        []order.StatusTotal `json:"byStatus"`
	TotalOrders     int64               `json:"totalOrders"`
	GrossTotalCents int64               `json:"grossTotalCents"`
}
