package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "art_studio",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "art_studio",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	stockMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "art_studio",
		Name:      "inventory_stock_mutations_total",
		Help:      "Inventory log rows written, by action.",
	}, []string{"action"})

	capacityDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "art_studio",
		Name:      "booking_capacity_decisions_total",
		Help:      "Capacity checks by outcome.",
	}, []string{"outcome"})

	purchaseReversals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "art_studio",
		Name:      "inventory_purchase_reversals_total",
		Help:      "Purchases reversed.",
	})
)

// GinMiddleware records request count and latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveLogWritten counts one audit row of the given action.
func ObserveLogWritten(action string) {
	stockMutations.WithLabelValues(action).Inc()
}

func ObserveCapacityDecision(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	capacityDecisions.WithLabelValues(outcome).Inc()
}

func ObservePurchaseReversal() {
	purchaseReversals.Inc()
}
