package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddCreatesEntryAtOne(t *testing.T) {
	var c Cart
	assert.True(t, c.IsEmpty())

	assert.Equal(t, 1, c.Add(7))
	assert.Equal(t, 2, c.Add(7))
	assert.Equal(t, 1, c.Add(3))

	require.Len(t, c.Entries, 2)
	assert.Equal(t, CartEntry{ProductID: 7, Quantity: 2}, c.Entries[0])
	assert.Equal(t, CartEntry{ProductID: 3, Quantity: 1}, c.Entries[1])
}

func TestCart_RemoveDeletesEntryAtZero(t *testing.T) {
	var c Cart
	c.Add(1)
	c.Add(1)

	assert.Equal(t, 1, c.Remove(1))
	assert.Equal(t, 0, c.Remove(1))
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.Quantity(1))
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	var c Cart
	c.Add(2)

	assert.Equal(t, 0, c.Remove(99))
	assert.Equal(t, []CartEntry{{ProductID: 2, Quantity: 1}}, c.Entries)
}

func TestCart_Clear(t *testing.T) {
	var c Cart
	c.Add(1)
	c.Add(2)
	c.Clear()

	assert.True(t, c.IsEmpty())
}

func TestCart_NeverHoldsNonPositiveQuantity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var c Cart

	for i := 0; i < 5000; i++ {
		id := int64(rng.Intn(5))
		if rng.Intn(2) == 0 {
			c.Add(id)
		} else {
			c.Remove(id)
		}
		for _, e := range c.Entries {
			require.Greater(t, e.Quantity, 0, "entry %d after op %d", e.ProductID, i)
		}
	}
}

func TestCart_SnapshotIsIsolated(t *testing.T) {
	var c Cart
	c.Add(1)
	snap := c.Snapshot()

	c.Add(1)
	c.Add(2)
	assert.Equal(t, []CartEntry{{ProductID: 1, Quantity: 1}}, snap.Entries())

	entries := snap.Entries()
	entries[0].Quantity = 50
	assert.Equal(t, 1, snap.Entries()[0].Quantity)
}
