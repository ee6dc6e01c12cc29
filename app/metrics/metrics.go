package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bluesky_auto"

// Metrics holds the Prometheus collectors for the publishing pipeline.
type Metrics struct {
	Registry *prometheus.Registry

	Items         *prometheus.CounterVec
	TagStrategies *prometheus.CounterVec
	FeedRuns      *prometheus.CounterVec
	RunDuration   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Feed items by pipeline state reached.",
		}, []string{"state"}),
		TagStrategies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tag_strategy_total",
			Help:      "Tag strategy invocations by outcome.",
		}, []string{"strategy", "outcome"}),
		FeedRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_runs_total",
			Help:      "Feed task executions by result.",
		}, []string{"feed", "result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full pass over all feeds.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	m.Registry.MustRegister(
		m.Items,
		m.TagStrategies,
		m.FeedRuns,
		m.RunDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ItemState(state string) {
	m.Items.WithLabelValues(state).Inc()
}

func (m *Metrics) TagOutcome(strategy, outcome string) {
	m.TagStrategies.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) FeedRun(feed, result string) {
	m.FeedRuns.WithLabelValues(feed, result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
