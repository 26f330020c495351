package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout results recorded on checkout_total.
const (
	CheckoutSuccess     = "success"
	CheckoutValidation  = "validation"
	CheckoutRejected    = "rejected"
	CheckoutConflict    = "conflict"
	CheckoutPersistence = "persistence"
)

// OrderMetrics records checkout outcomes and the best-effort side effects around orders.
type OrderMetrics struct {
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	notifyFailures   *prometheus.CounterVec
	usageFailures    prometheus.Counter
	bulkMutations    *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	notifyFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_notification_failures_total",
		Help: "Order notifications that could not be delivered.",
	}, []string{"notifier"})
	usageFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promotion_usage_increment_failures_total",
		Help: "Promotion usage increments that failed after an order was saved.",
	})
	bulkMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_bulk_mutations_total",
		Help: "Bulk order mutations by action and result.",
	}, []string{"action", "result"})
	reg.MustRegister(checkouts, checkoutDuration, notifyFailures, usageFailures, bulkMutations)
	return &OrderMetrics{
		checkouts:        checkouts,
		checkoutDuration: checkoutDuration,
		notifyFailures:   notifyFailures,
		usageFailures:    usageFailures,
		bulkMutations:    bulkMutations,
	}
}

// ObserveCheckout records one checkout attempt.
func (m *OrderMetrics) ObserveCheckout(result string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

// IncNotificationFailure increments the failure counter for the named notifier.
func (m *OrderMetrics) IncNotificationFailure(notifier string) {
	if m == nil || m.notifyFailures == nil {
		return
	}
	m.notifyFailures.WithLabelValues(normalizeLabel(notifier)).Inc()
}

func (m *OrderMetrics) IncUsageIncrementFailure() {
	if m == nil || m.usageFailures == nil {
		return
	}
	m.usageFailures.Inc()
}

// IncBulkMutation records a bulk status/delete outcome.
func (m *OrderMetrics) IncBulkMutation(action, result string) {
	if m == nil || m.bulkMutations == nil {
		return
	}
	m.bulkMutations.WithLabelValues(normalizeLabel(action), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
