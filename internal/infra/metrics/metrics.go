// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(apiRequestsTotal, apiRequestLatencyMs, apiUploadChunks)
}

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_api_requests_total",
			Help: "Requests sent to the QA backend by operation and outcome.",
		},
		[]string{"op", "code"}, // op: health|upload|ask, code: HTTP status or "transport"
	)

	apiRequestLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rag_api_request_latency_ms",
			Help:    "QA backend round trip in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
		},
		[]string{"op", "success"},
	)

	apiUploadChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rag_upload_chunks",
			Help:    "Chunks reported by the backend per uploaded document.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ObserveAPIRequest records one backend call. code is 0 for transport failures.
func ObserveAPIRequest(op string, code int, latency time.Duration) {
	label := "transport"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	success := code >= 200 && code < 300
	apiRequestsTotal.WithLabelValues(norm(op), label).Inc()
	apiRequestLatencyMs.WithLabelValues(norm(op), strconv.FormatBool(success)).
		Observe(float64(latency / time.Millisecond))
}

func ObserveUploadChunks(n int) {
	apiUploadChunks.Observe(float64(n))
}

var backendUp = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "rag_backend_up",
	Help: "1 when the last health probe reached the QA backend.",
})

func init() { register(backendUp) }

func SetBackendUp(up bool) {
	if up {
		backendUp.Set(1)
		return
	}
	backendUp.Set(0)
}
