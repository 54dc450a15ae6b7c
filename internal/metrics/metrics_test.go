// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics() *Metrics {
	return NewMetrics("test", prometheus.NewRegistry())
}

func TestRecordSearch(t *testing.T) {
	m := newTestMetrics()

	m.RecordSearch(20, nil, 0.3)
	m.RecordSearch(0, nil, 0.1)
	m.RecordSearch(0, errors.New("timeout"), 5)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesTotal.WithLabelValues("empty")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesTotal.WithLabelValues("error")))
}

func TestRecordItem(t *testing.T) {
	m := newTestMetrics()

	m.RecordItem("", 4096)
	m.RecordItem("too small", 0)
	m.RecordItem("too small", 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ItemOutcomes.WithLabelValues("saved")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ItemOutcomes.WithLabelValues("too small")))
	assert.Equal(t, float64(4096), testutil.ToFloat64(m.BytesDownloaded))
}

func TestRecordTopic(t *testing.T) {
	m := newTestMetrics()

	m.RecordTopic(false, true)
	m.RecordTopic(true, false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.TopicsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TopicsTotal.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TopicShortfalls))
}

func TestRecordJobLifecycle(t *testing.T) {
	m := newTestMetrics()

	m.RecordJobStarted()
	m.RecordJobStarted()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.JobsRunning))

	m.RecordJobFinished("completed", 12)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.JobsRunning))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.JobsStarted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.JobsFinished.WithLabelValues("completed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSearch(1, nil, 1)
		m.RecordResolution("miss")
		m.RecordItem("", 10)
		m.RecordTopic(false, false)
		m.RecordJobStarted()
		m.RecordJobFinished("error", 1)
		m.RecordExpansion("claude", "json")
	})
}
