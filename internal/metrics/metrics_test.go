package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Records(t *testing.T) {
	r := NewRegistry()

	r.SubmissionFinished("CONFIRMED")
	r.SubmissionFinished("CONFIRMED")
	r.SubmissionFinished("FAILED")
	r.CartMutated("add")
	r.EntriesOmitted(3)
	r.InventoryFetched(true)
	r.ObserveBackendCall("orders", "ok", 20*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.SubmissionOutcomes.WithLabelValues("CONFIRMED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.SubmissionOutcomes.WithLabelValues("FAILED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.CartMutations.WithLabelValues("add")))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.OmittedCartEntries))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.InventoryAvailable))
	assert.Equal(t, 1, testutil.CollectAndCount(r.BackendCalls))
}

func TestRegistry_NilIsSafe(t *testing.T) {
	var r *Registry

	assert.NotPanics(t, func() {
		r.SubmissionFinished("FAILED")
		r.CartMutated("remove")
		r.EntriesOmitted(1)
		r.InventoryFetched(false)
		r.ObserveBackendCall("inventory", "ok", time.Second)
		r.OrderEventFailed()
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.InventoryFetched(false)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "storefront_inventory_available 0")
}

func TestRegistry_CollectorsLintClean(t *testing.T) {
	r := NewRegistry()
	r.CartMutated("add")
	r.OrderEventFailed()
	r.SubmissionFinished("CONFIRMED")
	r.ObserveBackendCall("orders", "ok", time.Millisecond)

	for name, c := range map[string]prometheus.Collector{
		"submissions":   r.SubmissionOutcomes,
		"backend":       r.BackendCalls,
		"mutations":     r.CartMutations,
		"omitted":       r.OmittedCartEntries,
		"inventory":     r.InventoryAvailable,
		"events_failed": r.OrderEventsFailed,
	} {
		problems, err := testutil.CollectAndLint(c)
		require.NoError(t, err, name)
		assert.Empty(t, problems, name)
	}
}
