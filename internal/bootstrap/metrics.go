package bootstrap

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem is shared by every metric this package exposes.
const MetricsSubsystem = "bootstrap"

// Metrics contains the counters and gauges the service loop updates as it
// runs, ported from internal/consensus's PrometheusMetrics/NopMetrics idiom.
type Metrics struct {
	TagsSent    metrics.Counter
	TagsExpired metrics.Counter
	TagsInvalid metrics.Counter

	PrioritySetSize metrics.Gauge
	BlockingSetSize metrics.Gauge

	OutstandingBySource metrics.Gauge
}

// PrometheusMetrics returns Metrics built using the Prometheus client
// library. Optionally, labels can be provided along with their values
// ("foo", "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		TagsSent: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "tags_sent_total",
			Help:      "Total asc_pull_req tags sent.",
		}, labels).With(labelsAndValues...),
		TagsExpired: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "tags_expired_total",
			Help:      "Total tags evicted by the cleanup thread without a response.",
		}, labels).With(labelsAndValues...),
		TagsInvalid: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "tags_invalid_total",
			Help:      "Total responses classified invalid by verify.",
		}, labels).With(labelsAndValues...),
		PrioritySetSize: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "priority_set_size",
			Help:      "Current number of accounts in the priority set.",
		}, labels).With(labelsAndValues...),
		BlockingSetSize: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "blocking_set_size",
			Help:      "Current number of accounts stalled on a missing dependency.",
		}, labels).With(labelsAndValues...),
		OutstandingBySource: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "outstanding_tags",
			Help:      "Current in-flight tag count.",
		}, append(labels, "source")).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics, used by tests and when metrics are
// disabled.
func NopMetrics() *Metrics {
	return &Metrics{
		TagsSent:            discard.NewCounter(),
		TagsExpired:         discard.NewCounter(),
		TagsInvalid:         discard.NewCounter(),
		PrioritySetSize:     discard.NewGauge(),
		BlockingSetSize:     discard.NewGauge(),
		OutstandingBySource: discard.NewGauge(),
	}
}
