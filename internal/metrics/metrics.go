package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the storefront's collectors. All recording methods are safe
// to call on a nil *Registry.
type Registry struct {
	reg                *prometheus.Registry
	SubmissionOutcomes *prometheus.CounterVec
	BackendCalls       *prometheus.HistogramVec
	CartMutations      *prometheus.CounterVec
	OmittedCartEntries prometheus.Counter
	InventoryAvailable prometheus.Gauge
	OrderEventsFailed  prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_submissions_total",
		Help: "Order submission attempts by terminal state.",
	}, []string{"state"})
	backend := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_backend_call_duration_seconds",
		Help:    "Latency of calls to backend services.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "outcome"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart changes by action.",
	}, []string{"action"})
	omitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_checkout_omitted_entries_total",
		Help: "Cart entries left out of a checkout summary.",
	})
	available := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_inventory_available",
		Help: "1 if the last inventory fetch succeeded, 0 otherwise.",
	})
	eventsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_order_events_failed_total",
		Help: "order.placed events that could not be published.",
	})

	r.MustRegister(outcomes, backend, mutations, omitted, available, eventsFailed)
	return &Registry{
		reg:                r,
		SubmissionOutcomes: outcomes,
		BackendCalls:       backend,
		CartMutations:      mutations,
		OmittedCartEntries: omitted,
		InventoryAvailable: available,
		OrderEventsFailed:  eventsFailed,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) ObserveBackendCall(service, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.BackendCalls.WithLabelValues(service, outcome).Observe(elapsed.Seconds())
}

func (r *Registry) SubmissionFinished(state string) {
	if r == nil {
		return
	}
	r.SubmissionOutcomes.WithLabelValues(state).Inc()
}

func (r *Registry) CartMutated(action string) {
	if r == nil {
		return
	}
	r.CartMutations.WithLabelValues(action).Inc()
}

func (r *Registry) EntriesOmitted(n int) {
	if r == nil || n == 0 {
		return
	}
	r.OmittedCartEntries.Add(float64(n))
}

func (r *Registry) InventoryFetched(ok bool) {
	if r == nil {
		return
	}
	if ok {
		r.InventoryAvailable.Set(1)
		return
	}
	r.InventoryAvailable.Set(0)
}

func (r *Registry) OrderEventFailed() {
	if r == nil {
		return
	}
	r.OrderEventsFailed.Inc()
}
