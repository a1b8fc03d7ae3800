package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeStandard Type = "standard"
	TypeCustom   Type = "custom"
)

const MaxItemQuantity = 10

// Item is one cart line. Items are merged by ProductID.
type Item struct {
	ProductID      string  `json:"productId"`
	Title          string  `json:"title"`
	DesignerID     string  `json:"designerId"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	Currency       string  `json:"currency"`
	Quantity       int     `json:"quantity"`
	ImageURL       *string `json:"imageUrl,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      string          `json:"customerId"`
	DesignerID      *string         `json:"designerId"`
	CustomOrderID   *uuid.UUID      `json:"customOrderId"`
	Type            Type            `json:"type"`
	Status          Status          `json:"status"`
	Items           []Item          `json:"items"`
	SubtotalCents   int64           `json:"subtotalCents"`
	TaxCents        int64           `json:"taxCents"`
	ShippingCents   int64           `json:"shippingCents"`
	TotalCents      int64           `json:"totalCents"`
	Currency        string          `json:"currency"`
	ShippingAddress json.RawMessage `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// clone returns a deep copy so a proposed state can be diffed against the loaded one.
func (o *Order) clone() *Order {
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	if c.Items == nil {
		c.Items = []Item{}
	}
	if o.DesignerID != nil {
		d := *o.DesignerID
		c.DesignerID = &d
	}
	if o.CustomOrderID != nil {
		id := *o.CustomOrderID
		c.CustomOrderID = &id
	}
	if o.ShippingAddress != nil {
		c.ShippingAddress = append(json.RawMessage(nil), o.ShippingAddress...)
	}
	return &c
}

func (o *Order) isOwnedBy(customerID string) bool {
	return customerID != "" && o.CustomerID == customerID
}

func (o *Order) isAssignedTo(designerID string) bool {
	return designerID != "" && o.DesignerID != nil && *o.DesignerID == designerID
}

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortTotal     SortField = "total"
)

type Sort struct {
	Field SortField
	Desc  bool
}

// Filter narrows order listings. Empty fields do not filter.
type Filter struct {
	Status     *Status
	Type       *Type
	CustomerID string
	DesignerID string
	Search     string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// StatusTotal is one row of the admin summary report.
type StatusTotal struct {
	Status     Status `json:"status"`
	Count      int64  `json:"count"`
	TotalCents int64  `json:"totalCents"`
}

type CheckoutInput struct {
	ShippingAddress json.RawMessage
	PaymentMethod   string
}

type CheckoutResult struct {
	Order        *Order `json:"order"`
	Provider     string `json:"provider"`
	ClientSecret string `json:"clientSecret"`
}

// Commission is the part of a custom order that an order link copies.
type Commission struct {
	ID         uuid.UUID
	CustomerID string
	DesignerID *string
	QuoteCents *int64
	Currency   string
}
