package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID         int64           `json:"product_id"`
	Name              string          `json:"product_name"`
	QuantityAvailable int             `json:"quantity_available"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
}

// InventorySnapshot is the catalog as of the last successful inventory fetch.
// It is replaced wholesale on every refresh and never patched in place.
type InventorySnapshot struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Products  map[int64]Product `json:"products"`
}

func NewInventorySnapshot(products []Product, fetchedAt time.Time) *InventorySnapshot {
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}
	return &InventorySnapshot{
		FetchedAt: fetchedAt,
		Products:  byID,
	}
}

func (s *InventorySnapshot) Lookup(productID int64) (Product, bool) {
	if s == nil {
		return Product{}, false
	}
	p, ok := s.Products[productID]
	return p, ok
}

// List returns the products ordered by id.
func (s *InventorySnapshot) List() []Product {
	if s == nil {
		return []Product{}
	}
	out := make([]Product, 0, len(s.Products))
	for _, p := range s.Products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (s *InventorySnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Products)
}
