package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
)

// CartMetrics records cart activity. A nil *CartMetrics is valid and records nothing.
type CartMetrics struct {
	actions     *prometheus.CounterVec
	lineItems   prometheus.Gauge
	subtotal    prometheus.Gauge
	subscribers prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_actions_total",
		Help: "Cart actions dispatched, by action type and outcome.",
	}, []string{"action", "outcome"})
	lineItems := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_line_items",
		Help: "Distinct products currently in the cart.",
	})
	subtotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_subtotal",
		Help: "Current cart subtotal.",
	})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_subscribers",
		Help: "Active cart change listeners.",
	})
	reg.MustRegister(actions, lineItems, subtotal, subscribers)
	return &CartMetrics{
		actions:     actions,
		lineItems:   lineItems,
		subtotal:    subtotal,
		subscribers: subscribers,
	}
}

// IncAction counts one dispatched action.
func (m *CartMetrics) IncAction(action, outcome string) {
	if m == nil || m.actions == nil {
		return
	}
	m.actions.WithLabelValues(normalizeLabel(action), outcome).Inc()
}

// SetCart records the derived values of the latest cart snapshot.
func (m *CartMetrics) SetCart(lineItems int, subtotal float64) {
	if m == nil || m.lineItems == nil {
		return
	}
	m.lineItems.Set(float64(lineItems))
	m.subtotal.Set(subtotal)
}

// AddSubscribers moves the listener gauge by delta.
func (m *CartMetrics) AddSubscribers(delta int) {
	if m == nil || m.subscribers == nil {
		return
	}
	m.subscribers.Add(float64(delta))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
