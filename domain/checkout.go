package domain

import "github.com/shopspring/decimal"

type LineItem struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CheckoutSummary is a priced view of the cart against one inventory snapshot.
// Items follow cart insertion order.
type CheckoutSummary struct {
	Items []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}
