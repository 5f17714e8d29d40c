// Package metrics exposes Prometheus instrumentation for roster
// synchronization and the dashboard snapshot.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tartampluch/go-roster/internal/config"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SyncTotal      prometheus.Counter
	SyncFailures   prometheus.Counter
	SyncDuration   prometheus.Histogram
	RosterMembers  prometheus.Gauge
	UpcomingCount  prometheus.Gauge
	Recomputations prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
}

// New creates a private registry and registers every metric on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SyncTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "sync_total",
			Help:      "Total number of roster synchronizations attempted",
		}),

		SyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "sync_failures_total",
			Help:      "Total number of roster synchronizations that failed",
		}),

		SyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.MetricsNamespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of a full roster synchronization",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		RosterMembers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.MetricsNamespace,
			Name:      "roster_members",
			Help:      "Number of members in the last loaded roster",
		}),

		UpcomingCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.MetricsNamespace,
			Name:      "upcoming_birthdays",
			Help:      "Number of birthdays inside the configured window",
		}),

		Recomputations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "snapshot_recomputations_total",
			Help:      "Total number of dashboard snapshot rebuilds",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by route and status code",
		}, []string{"route", "code"}),
	}
}

// ObserveSync records one synchronization attempt.
func (m *Metrics) ObserveSync(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.SyncTotal.Inc()
	m.SyncDuration.Observe(d.Seconds())
	if err != nil {
		m.SyncFailures.Inc()
	}
}

// SetRoster records the size of the roster and of the upcoming list.
func (m *Metrics) SetRoster(members, upcoming int) {
	if m == nil {
		return
	}
	m.RosterMembers.Set(float64(members))
	m.UpcomingCount.Set(float64(upcoming))
}

// IncrementRecomputations counts a snapshot rebuild.
func (m *Metrics) IncrementRecomputations() {
	if m != nil {
		m.Recomputations.Inc()
	}
}

// ObserveRequest counts one served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
