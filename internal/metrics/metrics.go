// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors for the harvester:
// searches, OA resolutions, item outcomes, topics, jobs and keyword
// expansion. A nil *Metrics is valid and records nothing, so library code
// and tests can run without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector exported by the service.
type Metrics struct {
	// SearchesTotal counts metadata searches, labeled by result (ok, error, empty).
	SearchesTotal *prometheus.CounterVec
	// SearchDuration observes metadata search latency in seconds.
	SearchDuration prometheus.Histogram

	// ResolutionsTotal counts OA lookups, labeled by result (pdf, landing, miss).
	ResolutionsTotal *prometheus.CounterVec

	// ItemOutcomes counts finished item pipelines, labeled by outcome reason.
	// Successes carry the label "saved".
	ItemOutcomes *prometheus.CounterVec
	// BytesDownloaded counts bytes kept in validated PDFs.
	BytesDownloaded prometheus.Counter

	TopicsTotal     *prometheus.CounterVec
	TopicShortfalls prometheus.Counter

	JobsStarted  prometheus.Counter
	JobsFinished *prometheus.CounterVec
	JobsRunning  prometheus.Gauge
	JobDuration  prometheus.Histogram

	// ExpansionsTotal counts keyword expansions, labeled by provider and result
	// (json, fallback, error).
	ExpansionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers every collector on reg under namespace.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SearchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Metadata index searches by result",
		}, []string{"result"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Metadata index search latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		ResolutionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oa_resolutions_total",
			Help:      "Open-access lookups by result",
		}, []string{"result"}),
		ItemOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_outcomes_total",
			Help:      "Finished item pipelines by outcome",
		}, []string{"outcome"}),
		BytesDownloaded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_bytes_total",
			Help:      "Bytes written to validated PDF files",
		}),
		TopicsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topics_total",
			Help:      "Topics processed by result",
		}, []string{"result"}),
		TopicShortfalls: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topic_shortfalls_total",
			Help:      "Topics that finished below their target count",
		}),
		JobsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_started_total",
			Help:      "Harvest jobs started",
		}),
		JobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Harvest jobs finished by terminal status",
		}, []string{"status"}),
		JobsRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_running",
			Help:      "Harvest jobs currently running",
		}),
		JobDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "End-to-end harvest job duration in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		ExpansionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keyword_expansions_total",
			Help:      "Keyword expansion calls by provider and result",
		}, []string{"provider", "result"}),
	}
}

// RecordSearch records one metadata search.
func (m *Metrics) RecordSearch(results int, err error, seconds float64) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.SearchesTotal.WithLabelValues("error").Inc()
	case results == 0:
		m.SearchesTotal.WithLabelValues("empty").Inc()
	default:
		m.SearchesTotal.WithLabelValues("ok").Inc()
	}
	m.SearchDuration.Observe(seconds)
}

// RecordResolution records one OA lookup result.
func (m *Metrics) RecordResolution(result string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(result).Inc()
}

// RecordItem records a finished item. An empty reason means the item saved a PDF.
func (m *Metrics) RecordItem(reason string, bytes int64) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "saved"
		m.BytesDownloaded.Add(float64(bytes))
	}
	m.ItemOutcomes.WithLabelValues(reason).Inc()
}

// RecordTopic records a finished topic.
func (m *Metrics) RecordTopic(failed, shortfall bool) {
	if m == nil {
		return
	}
	if failed {
		m.TopicsTotal.WithLabelValues("error").Inc()
	} else {
		m.TopicsTotal.WithLabelValues("ok").Inc()
	}
	if shortfall {
		m.TopicShortfalls.Inc()
	}
}

// RecordJobStarted records a job entering the running state.
func (m *Metrics) RecordJobStarted() {
	if m == nil {
		return
	}
	m.JobsStarted.Inc()
	m.JobsRunning.Inc()
}

// RecordJobFinished records a job reaching a terminal status.
func (m *Metrics) RecordJobFinished(status string, seconds float64) {
	if m == nil {
		return
	}
	m.JobsRunning.Dec()
	m.JobsFinished.WithLabelValues(status).Inc()
	m.JobDuration.Observe(seconds)
}

// RecordExpansion records one keyword expansion call.
func (m *Metrics) RecordExpansion(provider, result string) {
	if m == nil {
		return
	}
	m.ExpansionsTotal.WithLabelValues(provider, result).Inc()
}
