// Package metrics holds the Prometheus instruments for ingestion and queries.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without instrumentation in tests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reactanalytics"

const (
	StatusApplied = "applied"
	StatusFailed  = "failed"
	StatusDropped = "dropped"
)

type Metrics struct {
	EventsTotal       *prometheus.CounterVec
	QueueDepth        *prometheus.GaugeVec
	QueryDuration     *prometheus.HistogramVec
	DuplicateMessages prometheus.Counter
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "events_total",
				Help:      "Chat events processed by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "queue_depth",
				Help:      "Events waiting in each ingest shard",
			},
			[]string{"shard"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Analytics query latency",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"query"},
		),
		DuplicateMessages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "duplicate_messages_total",
				Help:      "Message posts skipped because the message was already stored",
			},
		),
	}

	reg.MustRegister(m.EventsTotal, m.QueueDepth, m.QueryDuration, m.DuplicateMessages)
	return m
}

func (m *Metrics) Event(kind, status string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) Duplicate() {
	if m == nil {
		return
	}
	m.DuplicateMessages.Inc()
}

func (m *Metrics) SetQueueDepth(shard, depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(strconv.Itoa(shard)).Set(float64(depth))
}

// ObserveQuery records the time since start. Use it with defer.
func (m *Metrics) ObserveQuery(query string, start time.Time) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
