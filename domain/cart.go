package domain

type CartEntry struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Cart keeps entries in insertion order. An entry never holds a quantity below 1:
// it is dropped the moment it would reach zero.
type Cart struct {
	Entries []CartEntry `json:"entries"`
}

// Add increments the quantity of productID by one and returns the new quantity.
func (c *Cart) Add(productID int64) int {
	for i := range c.Entries {
		if c.Entries[i].ProductID == productID {
			c.Entries[i].Quantity++
			return c.Entries[i].Quantity
		}
	}
	c.Entries = append(c.Entries, CartEntry{ProductID: productID, Quantity: 1})
	return 1
}

// Remove decrements the quantity of productID by one, floored at zero.
// Removing an absent product is a no-op.
func (c *Cart) Remove(productID int64) int {
	for i := range c.Entries {
		if c.Entries[i].ProductID != productID {
			continue
		}
		q := c.Entries[i].Quantity - 1
		if q <= 0 {
			c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
			return 0
		}
		c.Entries[i].Quantity = q
		return q
	}
	return 0
}

func (c *Cart) Clear() {
	c.Entries = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

func (c *Cart) Quantity(productID int64) int {
	for _, e := range c.Entries {
		if e.ProductID == productID {
			return e.Quantity
		}
	}
	return 0
}

func (c *Cart) Snapshot() CartSnapshot {
	entries := make([]CartEntry, len(c.Entries))
	copy(entries, c.Entries)
	return CartSnapshot{entries: entries}
}

// CartSnapshot is a read-only copy of the cart taken for one checkout pass.
type CartSnapshot struct {
	entries []CartEntry
}

func NewCartSnapshot(entries ...CartEntry) CartSnapshot {
	cp := make([]CartEntry, len(entries))
	copy(cp, entries)
	return CartSnapshot{entries: cp}
}

// Entries returns a copy; callers cannot reach the snapshot's backing array.
func (s CartSnapshot) Entries() []CartEntry {
	out := make([]CartEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s CartSnapshot) Len() int {
	return len(s.entries)
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.entries) == 0
}
