package metrics

import (
	"bufio"
	"fmt"
	"net"
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

	assistantRequestsTotal *prometheus.CounterVec
	retrievalFallbackTotal *prometheus.CounterVec
	noContextTotal         *prometheus.CounterVec
	answerFallbackTotal    *prometheus.CounterVec
	transcriptionFailTotal *prometheus.CounterVec
	retrievedSources       *prometheus.HistogramVec
	assistantDuration      *prometheus.HistogramVec
	indexRebuildTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sm",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sm",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sm",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	assistantRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sm",
			Subsystem: "assistant",
			Name:      "requests_total",
			Help:      "Total successful assistant requests by source type.",
		},
		[]string{"service", "source_type"},
	)
	retrievalFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sm",
			Subsystem: "assistant",
			Name:      "retrieval_fallback_total",
			Help:      "Total assistant requests answered via keyword fallback retrieval.",
		},
		[]string{"service"},
	)
	noContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sm",
			Subsystem: "assistant",
			Name:      "no_context_total",
			Help:      "Total assistant requests without retrieved curriculum context.",
		},
		[]string{"service"},
	)
	answerFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sm",
			Subsystem: "assistant",
			Name:      "answer_fallback_total",
			Help:      "Total assistant requests answered with the fallback contract.",
		},
		[]string{"service"},
	)
	transcriptionFailTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sm",
			Subsystem: "assistant",
			Name:      "transcription_failures_total",
			Help:      "Total voice queries whose audio could not be transcribed.",
		},
		[]string{"service"},
	)
	retrievedSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sm",
			Subsystem: "assistant",
			Name:      "retrieved_sources",
			Help:      "Distribution of fused sources per successful assistant request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	assistantDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sm",
			Subsystem: "assistant",
			Name:      "duration_seconds",
			Help:      "End-to-end assistant pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source_type"},
	)
	indexRebuildTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sm",
			Subsystem: "assistant",
			Name:      "index_rebuild_total",
			Help:      "Total lexical index rebuilds triggered by index update events.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		assistantRequestsTotal,
		retrievalFallbackTotal,
		noContextTotal,
		answerFallbackTotal,
		transcriptionFailTotal,
		retrievedSources,
		assistantDuration,
		indexRebuildTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		assistantRequestsTotal: assistantRequestsTotal,
		retrievalFallbackTotal: retrievalFallbackTotal,
		noContextTotal:         noContextTotal,
		answerFallbackTotal:    answerFallbackTotal,
		transcriptionFailTotal: transcriptionFailTotal,
		retrievedSources:       retrievedSources,
		assistantDuration:      assistantDuration,
		indexRebuildTotal:      indexRebuildTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/sessions/"):
		return "/v1/sessions/{session_id}/reset"
	case strings.HasPrefix(path, "/v1/analytics/"):
		return "/v1/analytics/{crp_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAssistantObservation(service, sourceType string, sourceCount int, fallbackUsed, answerFellBack bool, duration time.Duration) {
	if sourceType == "" {
		sourceType = "unknown"
	}
	m.assistantRequestsTotal.WithLabelValues(service, sourceType).Inc()
	m.retrievedSources.WithLabelValues(service).Observe(float64(sourceCount))
	m.assistantDuration.WithLabelValues(service, sourceType).Observe(duration.Seconds())

	if sourceCount == 0 {
		m.noContextTotal.WithLabelValues(service).Inc()
	}
	if fallbackUsed {
		m.retrievalFallbackTotal.WithLabelValues(service).Inc()
	}
	if answerFellBack {
		m.answerFallbackTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordTranscriptionFailure(service string) {
	m.transcriptionFailTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordIndexRebuild(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.indexRebuildTotal.WithLabelValues(service, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
