package checkout

import (
	d "github.com/fjod/go_cart/storefront/domain"
	"github.com/shopspring/decimal"
)

type OmissionReason string

const (
	ReasonProductUnavailable OmissionReason = "product_unavailable"
	ReasonInvalidQuantity    OmissionReason = "invalid_quantity"
)

// Omission records a cart entry left out of the summary.
type Omission struct {
	ProductID int64          `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Reason    OmissionReason `json:"reason"`
}

type Diagnostics struct {
	Omitted []Omission `json:"omitted"`
}

func (d Diagnostics) HasOmissions() bool {
	return len(d.Omitted) > 0
}

// Compute prices the cart against the inventory snapshot.
//
// Entries whose product is missing from the snapshot, or whose quantity is not
// positive, are left out of the summary and reported in Diagnostics instead of
// failing the whole checkout. Stock levels are not checked here; the order
// service decides on oversell at commit time.
func Compute(cart d.CartSnapshot, inventory *d.InventorySnapshot) (d.CheckoutSummary, Diagnostics) {
	summary := d.CheckoutSummary{
		Items: make([]d.LineItem, 0, cart.Len()),
		Total: decimal.Zero,
	}
	var diag Diagnostics

	for _, entry := range cart.Entries() {
		if entry.Quantity <= 0 {
			diag.Omitted = append(diag.Omitted, Omission{entry.ProductID, entry.Quantity, ReasonInvalidQuantity})
			continue
		}
		product, ok := inventory.Lookup(entry.ProductID)
		if !ok {
			diag.Omitted = append(diag.Omitted, Omission{entry.ProductID, entry.Quantity, ReasonProductUnavailable})
			continue
		}

		subtotal := product.UnitPrice.Mul(decimal.NewFromInt(int64(entry.Quantity)))
		summary.Items = append(summary.Items, d.LineItem{
			Product:  product,
			Quantity: entry.Quantity,
			Subtotal: subtotal,
		})
		summary.Total = summary.Total.Add(subtotal)
	}

	return summary, diag
}
