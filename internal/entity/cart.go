package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product (and optional size) in a user's cart. Price is a
// snapshot taken when the line was created. Once Ordered is set the line
// belongs to the order in OrderID and is never written again.
type CartLine struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"user_id"`
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductCategory string          `json:"product_category"`
	Size            string          `json:"size,omitempty"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	DateAdded       time.Time       `json:"date_added"`
	Ordered         bool            `json:"ordered"`
	OrderID         *int64          `json:"order_id,omitempty"`
}

// Subtotal is quantity times the snapshotted price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the subtotals of lines.
func Total(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// AddToCart is the request to put a product into a cart. A zero Price means
// "use the product's current price for the size".
type AddToCart struct {
	UserID    string
	ProductID int64
	Size      string
	Quantity  int
	Price     decimal.Decimal
}

// UpdateCartLine changes the quantity, and optionally the size, of a line.
type UpdateCartLine struct {
	LineID   int64
	UserID   string
	Quantity int
	Size     string
}
