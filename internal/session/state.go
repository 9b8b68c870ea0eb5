package session

import (
	"time"

	d "github.com/fjod/go_cart/storefront/domain"
)

// State is everything the storefront keeps for one shopper session.
type State struct {
	ID         string               `json:"id"`
	CustomerID int64                `json:"customer_id,omitempty"`
	Cart       d.Cart               `json:"cart"`
	Inventory  *d.InventorySnapshot `json:"inventory,omitempty"`
	Pending    *PendingSubmission   `json:"pending,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

func newState(id string, now time.Time) *State {
	return &State{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone copies the cart entries. The inventory snapshot is immutable and shared.
func (s *State) Clone() *State {
	cp := *s
	if s.Cart.Entries != nil {
		cp.Cart.Entries = append([]d.CartEntry(nil), s.Cart.Entries...)
	}
	return &cp
}

func (s *State) HasCustomer() bool {
	return s.CustomerID > 0
}

// PendingSubmission records an order attempt whose outcome is not known to be
// final. A retry of the same cart reuses its idempotency key so the order
// service can recognise the duplicate.
type PendingSubmission struct {
	IdempotencyKey string        `json:"idempotency_key"`
	Lines          []d.OrderLine `json:"lines"`
	StartedAt      time.Time     `json:"started_at"`
}

// Matches reports whether cart holds exactly the lines of the pending attempt.
func (p *PendingSubmission) Matches(cart d.CartSnapshot) bool {
	if p == nil {
		return false
	}
	entries := cart.Entries()
	if len(entries) != len(p.Lines) {
		return false
	}
	for i, e := range entries {
		if e.ProductID != p.Lines[i].ProductID || e.Quantity != p.Lines[i].Quantity {
			return false
		}
	}
	return true
}
