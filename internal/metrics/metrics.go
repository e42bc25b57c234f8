package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pdfqa"

// Metrics groups the collectors of the ingestion and question pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	filesIngested      *prometheus.CounterVec
	embeddingCalls     *prometheus.CounterVec
	questions          *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	initializeDuration prometheus.Histogram
	liveChunks         prometheus.Gauge
}

// New registers all collectors, plus Go and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		filesIngested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_ingested_total",
			Help:      "Source files processed by initialize, by outcome.",
		}, []string{"outcome"}),
		embeddingCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_calls_total",
			Help:      "Embedding calls by mode and outcome; degraded calls were replaced by a zero vector.",
		}, []string{"mode", "outcome"}),
		questions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions asked, by outcome.",
		}, []string{"outcome"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		initializeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "initialize_duration_seconds",
			Help:      "Wall time of initialize runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		liveChunks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_chunks",
			Help:      "Chunks in the live index generation.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) FileIngested(outcome string) {
	if m == nil {
		return
	}
	m.filesIngested.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EmbeddingCall(mode, outcome string) {
	if m == nil {
		return
	}
	m.embeddingCalls.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) Question(outcome string) {
	if m == nil {
		return
	}
	m.questions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) InitializeFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.initializeDuration.Observe(d.Seconds())
}

func (m *Metrics) SetLiveChunks(n int) {
	if m == nil {
		return
	}
	m.liveChunks.Set(float64(n))
}
