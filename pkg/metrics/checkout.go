package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout outcomes and post-order settlement repair
// activity.
type CheckoutMetrics struct {
	ordersCreated    prometheus.Counter
	orderFailures    prometheus.Counter
	settlementErrors *prometheus.CounterVec
	sweepArchived    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Sales successfully created by checkout confirmation.",
	})
	orderFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_order_failures_total",
		Help: "Checkout confirmations that failed before a sale existed.",
	})
	settlementErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_settlement_errors_total",
		Help: "Post-order steps that failed after the sale was created.",
	}, []string{"step"})
	sweepArchived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_duplicate_sweep_archived_total",
		Help: "Duplicate active carts archived by the maintenance sweep.",
	})
	reg.MustRegister(ordersCreated, orderFailures, settlementErrors, sweepArchived)
	return &CheckoutMetrics{
		ordersCreated:    ordersCreated,
		orderFailures:    orderFailures,
		settlementErrors: settlementErrors,
		sweepArchived:    sweepArchived,
	}
}

// IncOrderCreated counts a successful sale.
func (c *CheckoutMetrics) IncOrderCreated() {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.Inc()
}

// IncOrderFailure counts a checkout that failed before order creation.
func (c *CheckoutMetrics) IncOrderFailure() {
	if c == nil || c.orderFailures == nil {
		return
	}
	c.orderFailures.Inc()
}

// IncSettlementError counts a failed post-order step by name.
func (c *CheckoutMetrics) IncSettlementError(step string) {
	if c == nil || c.settlementErrors == nil {
		return
	}
	if step == "" {
		step = "unknown"
	}
	c.settlementErrors.WithLabelValues(step).Inc()
}

// AddSweepArchived counts carts archived by the duplicate sweep.
func (c *CheckoutMetrics) AddSweepArchived(n int) {
	if c == nil || c.sweepArchived == nil || n <= 0 {
		return
	}
	c.sweepArchived.Add(float64(n))
}
