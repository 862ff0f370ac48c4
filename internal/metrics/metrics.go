// Package metrics provides a self-contained Prometheus registry with common
// HTTP metrics and object-store operation counters.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studydrive/internal/drive"
)

type Metrics struct {
	reg      *prometheus.Registry
	inflight prometheus.Gauge
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	storeOps *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "studydrive",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of inflight HTTP requests.",
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studydrive",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests processed, partitioned by status code and method.",
	}, []string{"code", "method"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studydrive",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Histogram of latencies for HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"code", "method"})
	storeOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studydrive",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Total number of object-store operations, partitioned by operation and outcome.",
	}, []string{"op", "outcome"})

	_ = reg.Register(inflight)
	_ = reg.Register(requests)
	_ = reg.Register(latency)
	_ = reg.Register(storeOps)

	return &Metrics{
		reg:      reg,
		inflight: inflight,
		requests: requests,
		latency:  latency,
		storeOps: storeOps,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps next to collect the inflight gauge, the request counter,
// and the latency histogram. Nil-safe so callers can pass a disabled *Metrics.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		method := r.Method
		code := strconv.Itoa(rec.status)
		elapsed := time.Since(start).Seconds()

		m.requests.WithLabelValues(code, method).Inc()
		m.latency.WithLabelValues(code, method).Observe(elapsed)
	})
}

// ObserveStoreOp records one object-store operation. A drive.ErrNoSuchKey
// result counts as its own outcome since a missing object is an expected
// condition, not a provider failure.
func (m *Metrics) ObserveStoreOp(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, drive.ErrNoSuchKey):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	m.storeOps.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
