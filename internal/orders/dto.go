package orders

import (
	"time"

	"github.com/angelmondragon/caskettrack/pkg/db/models"
	"github.com/google/uuid"
)

// LineInput is one requested casket model and quantity.
type LineInput struct {
	ProductName string `json:"product_name" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
}

// PlaceOrderInput carries a customer order as entered on the dashboard.
type PlaceOrderInput struct {
	Customer string      `json:"customer" validate:"required"`
	Items    []LineInput `json:"items" validate:"required,min=1,dive"`
}

// Line is a placed or summarized order line. Remaining is the stock left
// after the order committed and is nil for summaries.
type Line struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Remaining   *int   `json:"remaining,omitempty"`
}

// Order is the result of placing or summarizing an order.
type Order struct {
	Ref      *uuid.UUID `json:"order_ref,omitempty"`
	Customer string     `json:"customer"`
	PlacedAt *time.Time `json:"placed_at,omitempty"`
	Lines    []Line     `json:"items"`
	Slip     string     `json:"slip"`
}

// TotalQuantity sums the quantity of every line.
func (o Order) TotalQuantity() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}

// PurchaseFilter narrows the recent purchases listing. Empty slices match
// everything.
type PurchaseFilter struct {
	Customers []string
	Products  []string
	Days      int
}

// DefaultPurchaseWindowDays bounds RecentPurchases when no window is given.
const DefaultPurchaseWindowDays = 30

// PurchaseDTO is the API representation of a purchase row.
type PurchaseDTO struct {
	OrderRef    uuid.UUID `json:"order_ref"`
	Customer    string    `json:"customer"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	PurchasedAt time.Time `json:"date_purchased"`
}

// ToPurchaseDTOs maps purchase rows for the API.
func ToPurchaseDTOs(rows []models.Purchase) []PurchaseDTO {
	out := make([]PurchaseDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, PurchaseDTO{
			OrderRef:    r.OrderRef,
			Customer:    r.Customer,
			ProductName: r.ProductName,
			Quantity:    r.Quantity,
			PurchasedAt: r.PurchasedAt,
		})
	}
	return out
}
