package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Wallet operations
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_operations_total",
			Help: "Total committed wallet operations",
		},
		[]string{"type"}, // DEPOSIT|WITHDRAW
	)
	OperationsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_operations_failed_total",
			Help: "Total rejected or failed wallet operations",
		},
	)

	registerOnce sync.Once
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestLatency)
		prometheus.MustRegister(OperationsTotal)
		prometheus.MustRegister(OperationsFailed)
	})
}

// HTTPMetrics records request counts and latency per route pattern.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := strconv.Itoa(c.Writer.Status())
		RequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
		RequestLatency.WithLabelValues(c.Request.Method, route, status).
			Observe(time.Since(start).Seconds())
	}
}
