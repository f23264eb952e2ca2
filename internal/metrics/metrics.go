package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus instruments.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	DeliveryFailures  prometheus.Counter

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New(serviceName string) *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "quizflow",
			Subsystem: serviceName,
			Name:      "sessions_started_total",
			Help:      "Quiz sessions started",
		}),
		SessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "quizflow",
			Subsystem: serviceName,
			Name:      "sessions_completed_total",
			Help:      "Quiz sessions that reached the terminal phase",
		}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "quizflow",
			Subsystem: serviceName,
			Name:      "result_delivery_failures_total",
			Help:      "Result submissions or completion signals that failed",
		}),
		RequestCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizflow",
			Subsystem: serviceName,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quizflow",
			Subsystem: serviceName,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Middleware records request counts and latency per method.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.RequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
