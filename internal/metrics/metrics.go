package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "surfer_cycles_total",
		Help: "Completed reconciliation cycles.",
	})

	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "surfer_cycle_duration_seconds",
		Help:    "Reconciliation cycle duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	DeferralsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "surfer_deferrals_total",
		Help: "Cycles deferred because place/cancel operations were in flight.",
	})

	FillsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "surfer_fills_total",
		Help: "Orders inferred filled, by side.",
	}, []string{"side"})

	OrdersPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "surfer_orders_placed_total",
		Help: "Orders submitted through the gateway, by side.",
	}, []string{"side"})

	OrdersCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "surfer_orders_cancelled_total",
		Help: "Cancellations submitted through the gateway.",
	})

	LadderDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "surfer_ladder_depth",
		Help: "Resting orders per side after the last resync.",
	}, []string{"side"})
)

// Register registers all surfer metrics with the default registry.
func Register() {
	prometheus.MustRegister(
		CyclesTotal,
		CycleDuration,
		DeferralsTotal,
		FillsTotal,
		OrdersPlacedTotal,
		OrdersCancelledTotal,
		LadderDepth,
	)
}
