package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 进度写合并指标
	ProgressFlushCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_flush_total",
			Help: "Total number of coalesced progress persistence flushes",
		},
		[]string{"result"},
	)

	ProgressFlushRetryCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_flush_retries_total",
			Help: "Total number of progress flush retry attempts",
		},
	)

	RealtimePushCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_realtime_pushes_total",
			Help: "Total number of real-time progress pushes delivered to subscribers",
		},
		[]string{"result"},
	)

	RecommendationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_generation_duration_seconds",
			Help:    "Duration of recommendation bundle generation",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ProgressFlushCounter)
	prometheus.MustRegister(ProgressFlushRetryCounter)
	prometheus.MustRegister(RealtimePushCounter)
	prometheus.MustRegister(RecommendationDuration)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
