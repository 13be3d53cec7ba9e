package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ytsummarizer/internal/highlight"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	upstreamRequestsTotal *prometheus.CounterVec
	upstreamDuration      *prometheus.HistogramVec
	transcriptFetches     *prometheus.CounterVec
	summariesTotal        *prometheus.CounterVec
	highlightsDropped     prometheus.Counter
	highlightsSynthesized *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytsummarizer_http_requests_total",
				Help: "Total number of HTTP requests handled.",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ytsummarizer_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
			},
			[]string{"route", "method", "status"},
		),
		upstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytsummarizer_upstream_requests_total",
				Help: "Total upstream LLM API requests.",
			},
			[]string{"endpoint", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ytsummarizer_upstream_request_duration_seconds",
				Help:    "Upstream LLM request duration in seconds.",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
			},
			[]string{"endpoint", "status"},
		),
		transcriptFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytsummarizer_transcript_fetches_total",
				Help: "Transcript fetches by outcome.",
			},
			[]string{"outcome"},
		),
		summariesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytsummarizer_summaries_total",
				Help: "Summarize requests by outcome.",
			},
			[]string{"outcome"},
		),
		highlightsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ytsummarizer_highlights_dropped_total",
				Help: "Model highlights dropped as undecodable, out of range or duplicate.",
			},
		),
		highlightsSynthesized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytsummarizer_highlights_synthesized_total",
				Help: "Highlights added by coverage repair, by kind.",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.upstreamRequestsTotal,
		m.upstreamDuration,
		m.transcriptFetches,
		m.summariesTotal,
		m.highlightsDropped,
		m.highlightsSynthesized,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if method == "" {
		method = "UNKNOWN"
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(route, method, statusLabel).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusLabel).Observe(duration.Seconds())
}

func (m *Metrics) ObserveUpstream(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	statusLabel := strconv.Itoa(status)
	m.upstreamRequestsTotal.WithLabelValues(endpoint, statusLabel).Inc()
	m.upstreamDuration.WithLabelValues(endpoint, statusLabel).Observe(duration.Seconds())
}

func (m *Metrics) ObserveTranscript(outcome string) {
	if m == nil {
		return
	}
	m.transcriptFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSummary(outcome string) {
	if m == nil {
		return
	}
	m.summariesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveNormalization(stats highlight.Stats) {
	if m == nil {
		return
	}
	m.highlightsDropped.Add(float64(stats.Dropped))
	m.highlightsSynthesized.WithLabelValues("intro").Add(float64(stats.Intro))
	m.highlightsSynthesized.WithLabelValues("outro").Add(float64(stats.Outro))
	m.highlightsSynthesized.WithLabelValues("interpolated").Add(float64(stats.Interpolated))
}
