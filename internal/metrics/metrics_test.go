package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Event("reaction_added", StatusApplied)
	m.Event("reaction_added", StatusApplied)
	m.Event("reaction_added", StatusFailed)
	m.Duplicate()
	m.SetQueueDepth(3, 7)
	m.ObserveQuery("most_used_reacts", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("reaction_added", StatusApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("reaction_added", StatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateMessages))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.QueueDepth.WithLabelValues("3")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.QueryDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Event("message_posted", StatusApplied)
		m.Duplicate()
		m.SetQueueDepth(0, 1)
		m.ObserveQuery("most_active", time.Now())
	})
}
