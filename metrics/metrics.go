package metrics

import (
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kitchen"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome (completed, pending, rejected, failed).",
	}, []string{"outcome"})

	stockRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_rollbacks_total",
		Help:      "Optimistic stock changes reverted after a failed write.",
	})

	outboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_published_total",
		Help:      "Outbox records processed by the dispatcher, by result.",
	}, []string{"result"})

	openCarts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "open_carts",
		Help:      "Carts currently held in memory.",
	})
)

func Enabled() bool {
	v, err := strconv.ParseBool(os.Getenv("PROMETHEUS_ENABLED"))
	if err != nil {
		return true
	}
	return v
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Middleware records request counts and latency by matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func ObserveCheckout(outcome string) {
	checkouts.WithLabelValues(outcome).Inc()
}

func ObserveStockRollback() {
	stockRollbacks.Inc()
}

func ObserveOutbox(result string) {
	outboxPublished.WithLabelValues(result).Inc()
}

func SetOpenCarts(n int) {
	openCarts.Set(float64(n))
}
