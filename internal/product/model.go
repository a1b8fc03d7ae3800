package product

// Product is the catalog view the order aggregate prices line items from.
type Product struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	DesignerID     string  `json:"designerId"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	Currency       string  `json:"currency"`
	ImageURL       *string `json:"imageUrl,omitempty"`
}
