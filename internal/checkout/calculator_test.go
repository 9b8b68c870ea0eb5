package checkout

import (
	"testing"
	"time"

	d "github.com/fjod/go_cart/storefront/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleInventory() *d.InventorySnapshot {
	return d.NewInventorySnapshot([]d.Product{
		{ProductID: 1, Name: "A", QuantityAvailable: 10, UnitPrice: price("10.00")},
		{ProductID: 3, Name: "B", QuantityAvailable: 0, UnitPrice: price("5.00")},
		{ProductID: 4, Name: "C", QuantityAvailable: 3, UnitPrice: price("0.10")},
	}, time.Now())
}

func TestCompute_PricesCartInOrder(t *testing.T) {
	cart := d.NewCartSnapshot(
		d.CartEntry{ProductID: 1, Quantity: 2},
		d.CartEntry{ProductID: 3, Quantity: 1},
	)

	summary, diag := Compute(cart, sampleInventory())

	require.Len(t, summary.Items, 2)
	assert.Equal(t, "A", summary.Items[0].Product.Name)
	assert.Equal(t, 2, summary.Items[0].Quantity)
	assert.True(t, price("20.00").Equal(summary.Items[0].Subtotal))
	assert.Equal(t, "B", summary.Items[1].Product.Name)
	assert.True(t, price("5.00").Equal(summary.Items[1].Subtotal))
	assert.True(t, price("25.00").Equal(summary.Total), "total %s", summary.Total)
	assert.False(t, diag.HasOmissions())
}

func TestCompute_ExactDecimalArithmetic(t *testing.T) {
	cart := d.NewCartSnapshot(d.CartEntry{ProductID: 4, Quantity: 3})

	summary, _ := Compute(cart, sampleInventory())

	// 0.1 * 3 is not representable in binary floating point.
	assert.Equal(t, "0.3", summary.Total.String())
}

func TestCompute_OmitsStaleEntries(t *testing.T) {
	cart := d.NewCartSnapshot(
		d.CartEntry{ProductID: 1, Quantity: 1},
		d.CartEntry{ProductID: 42, Quantity: 5},
	)

	summary, diag := Compute(cart, sampleInventory())

	require.Len(t, summary.Items, 1)
	assert.Equal(t, int64(1), summary.Items[0].Product.ProductID)
	assert.True(t, price("10.00").Equal(summary.Total))
	require.Len(t, diag.Omitted, 1)
	assert.Equal(t, Omission{ProductID: 42, Quantity: 5, Reason: ReasonProductUnavailable}, diag.Omitted[0])
}

func TestCompute_OmitsNonPositiveQuantity(t *testing.T) {
	cart := d.NewCartSnapshot(d.CartEntry{ProductID: 1, Quantity: 0})

	summary, diag := Compute(cart, sampleInventory())

	assert.Empty(t, summary.Items)
	assert.True(t, summary.Total.IsZero())
	require.Len(t, diag.Omitted, 1)
	assert.Equal(t, ReasonInvalidQuantity, diag.Omitted[0].Reason)
}

func TestCompute_DoesNotCheckAvailability(t *testing.T) {
	// product 3 has zero stock but is still priced
	cart := d.NewCartSnapshot(d.CartEntry{ProductID: 3, Quantity: 4})

	summary, diag := Compute(cart, sampleInventory())

	require.Len(t, summary.Items, 1)
	assert.True(t, price("20.00").Equal(summary.Total))
	assert.False(t, diag.HasOmissions())
}

func TestCompute_NilInventoryOmitsEverything(t *testing.T) {
	cart := d.NewCartSnapshot(d.CartEntry{ProductID: 1, Quantity: 1})

	summary, diag := Compute(cart, nil)

	assert.Empty(t, summary.Items)
	assert.True(t, summary.Total.IsZero())
	assert.Len(t, diag.Omitted, 1)
}

func TestCompute_TotalIsOrderIndependent(t *testing.T) {
	entries := []d.CartEntry{
		{ProductID: 1, Quantity: 2},
		{ProductID: 3, Quantity: 7},
		{ProductID: 4, Quantity: 9},
		{ProductID: 99, Quantity: 1},
	}
	base, _ := Compute(d.NewCartSnapshot(entries...), sampleInventory())

	permutations := [][]int{{3, 2, 1, 0}, {2, 0, 3, 1}, {1, 3, 0, 2}}
	for _, perm := range permutations {
		reordered := make([]d.CartEntry, len(perm))
		for i, idx := range perm {
			reordered[i] = entries[idx]
		}
		summary, _ := Compute(d.NewCartSnapshot(reordered...), sampleInventory())
		assert.True(t, base.Total.Equal(summary.Total), "perm %v: %s != %s", perm, summary.Total, base.Total)
	}
}

func TestCompute_TotalEqualsSumOfSubtotals(t *testing.T) {
	cart := d.NewCartSnapshot(
		d.CartEntry{ProductID: 1, Quantity: 3},
		d.CartEntry{ProductID: 4, Quantity: 11},
	)

	summary, _ := Compute(cart, sampleInventory())

	sum := decimal.Zero
	for _, item := range summary.Items {
		sum = sum.Add(item.Subtotal)
	}
	assert.True(t, sum.Equal(summary.Total))
}
