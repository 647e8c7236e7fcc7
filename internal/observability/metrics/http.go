package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal         *prometheus.CounterVec
	classificationsTotal *prometheus.CounterVec
	extractionsTotal     *prometheus.CounterVec
	extractionDuration   *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "intake",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "intake",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "documents",
			Name:      "uploads_total",
			Help:      "Total accepted document uploads.",
		},
		[]string{"service", "mime_type"},
	)
	classificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "documents",
			Name:      "classifications_total",
			Help:      "Total document classifications by resulting kind.",
		},
		[]string{"service", "kind"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "documents",
			Name:      "extractions_total",
			Help:      "Total field extraction attempts by status.",
		},
		[]string{"service", "status"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "intake",
			Subsystem: "documents",
			Name:      "extraction_duration_seconds",
			Help:      "Field extraction duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		classificationsTotal,
		extractionsTotal,
		extractionDuration,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		uploadsTotal:         uploadsTotal,
		classificationsTotal: classificationsTotal,
		extractionsTotal:     extractionsTotal,
		extractionDuration:   extractionDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TrackRequest marks a request in flight and returns the completion callback
// that records its count and duration under the final response status.
func (m *HTTPServerMetrics) TrackRequest(service, method, rawPath string) func(status int) {
	start := time.Now()
	path := normalizePath(rawPath)
	m.requestInFlight.Inc()

	return func(status int) {
		m.requestInFlight.Dec()
		m.requestTotal.WithLabelValues(service, method, path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(service, method, path).Observe(time.Since(start).Seconds())
	}
}

// normalizePath collapses IDs so path labels stay low-cardinality.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		if strings.HasSuffix(path, "/classify") {
			return "/v1/documents/{document_id}/classify"
		}
		if strings.HasSuffix(path, "/extract") {
			return "/v1/documents/{document_id}/extract"
		}
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/intakes/"):
		for _, suffix := range []string{"/documents", "/classify", "/extract", "/checklist", "/export"} {
			if strings.HasSuffix(path, suffix) {
				return "/v1/intakes/{intake_id}" + suffix
			}
		}
		return "/v1/intakes/{intake_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordUpload(service, mimeType string) {
	if mimeType == "" {
		mimeType = "unknown"
	}
	m.uploadsTotal.WithLabelValues(service, mimeType).Inc()
}

func (m *HTTPServerMetrics) RecordClassification(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.classificationsTotal.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordExtraction(service string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.extractionsTotal.WithLabelValues(service, status).Inc()
	m.extractionDuration.WithLabelValues(service).Observe(duration.Seconds())
}
