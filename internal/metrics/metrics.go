// Package metrics exposes storefront counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oyhutmarket/storefront/internal/availability"
	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/fallback"
	"github.com/oyhutmarket/storefront/internal/guestorder"
)

const namespace = "storefront"

// Collector implements the observer hooks of the availability monitor, the
// fallback gate, the cart engines and checkout.
type Collector struct {
	registry *prometheus.Registry

	probes        *prometheus.HistogramVec
	backendState  *prometheus.GaugeVec
	served        *prometheus.CounterVec
	cartMutations *prometheus.CounterVec
	orders        *prometheus.CounterVec
}

var states = []availability.State{
	availability.StateUnknown,
	availability.StateAvailable,
	availability.StateUnavailable,
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "health_probe_duration_seconds",
				Help:      "Duration of backend health probes",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"result"},
		),
		backendState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backend_state",
				Help:      "1 for the current backend availability state, 0 otherwise",
			},
			[]string{"state"},
		),
		served: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reads_served_total",
				Help:      "Catalog reads by operation and the path that served them",
			},
			[]string{"op", "path"},
		),
		cartMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_mutations_total",
				Help:      "Cart actions by cart kind and outcome",
			},
			[]string{"cart", "action", "result"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_submitted_total",
				Help:      "Guest order submissions by payment method and outcome",
			},
			[]string{"method", "result"},
		),
	}

	c.registry.MustRegister(
		c.probes,
		c.backendState,
		c.served,
		c.cartMutations,
		c.orders,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.StateChanged(availability.StateUnknown)

	return c
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (c *Collector) ProbeCompleted(ok bool, took time.Duration) {
	c.probes.WithLabelValues(result(ok)).Observe(took.Seconds())
}

func (c *Collector) StateChanged(s availability.State) {
	for _, st := range states {
		v := 0.0
		if st == s {
			v = 1
		}
		c.backendState.WithLabelValues(st.String()).Set(v)
	}
}

func (c *Collector) Served(op string, path fallback.Path) {
	c.served.WithLabelValues(op, string(path)).Inc()
}

func (c *Collector) CartMutated(kind cart.Kind, action string, err error) {
	c.cartMutations.WithLabelValues(string(kind), action, result(err == nil)).Inc()
}

func (c *Collector) OrderSubmitted(method guestorder.PaymentMethod, err error) {
	c.orders.WithLabelValues(string(method), result(err == nil)).Inc()
}

// Registry returns the registry all storefront collectors live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
