// Package metrics exports Prometheus metrics for dispatch, publishing and
// admin actions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitalvas/rewriter/dispatch"
	"github.com/vitalvas/rewriter/rewrite"
)

// Config configures the collectors.
type Config struct {
	// Namespace defaults to "rewriter".
	Namespace string

	// Buckets for the dispatch duration histogram. Defaults to
	// prometheus.DefBuckets.
	Buckets []float64

	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Option configures Metrics.
type Option func(*Config)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegisterer sets the registerer the collectors are added to.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registerer = r
	}
}

// Metrics implements dispatch.Observer and router.PublishObserver and counts
// admin actions.
type Metrics struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	tableVersion     prometheus.Gauge
	tableRules       prometheus.Gauge
	publishTotal     *prometheus.CounterVec
	adminActions     *prometheus.CounterVec
}

// New registers the collectors. Registering twice on the same registerer
// panics, so use a dedicated registry per instance.
func New(opts ...Option) *Metrics {
	cfg := Config{
		Namespace:  "rewriter",
		Buckets:    prometheus.DefBuckets,
		Registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registerer)

	return &Metrics{
		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "dispatch_total",
			Help:      "Dispatched requests by route family, final state and status code.",
		}, []string{"family", "state", "code"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time from match to response by route family.",
			Buckets:   cfg.Buckets,
		}, []string{"family"}),

		tableVersion: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "table_version",
			Help:      "Version of the live rewrite table.",
		}),

		tableRules: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "table_rules",
			Help:      "Number of rules in the live rewrite table.",
		}),

		publishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "publish_total",
			Help:      "Rewrite table publish attempts by result.",
		}, []string{"result"}),

		adminActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "admin_actions_total",
			Help:      "Admin API actions by action and result.",
		}, []string{"action", "result"}),
	}
}

// ObserveDispatch implements dispatch.Observer.
func (m *Metrics) ObserveDispatch(family dispatch.Family, state dispatch.State, status int, elapsed time.Duration) {
	m.dispatchTotal.WithLabelValues(family.String(), state.String(), strconv.Itoa(status)).Inc()
	m.dispatchDuration.WithLabelValues(family.String()).Observe(elapsed.Seconds())
}

// ObservePublish implements router.PublishObserver.
func (m *Metrics) ObservePublish(table *rewrite.Table, err error) {
	if err != nil {
		m.publishTotal.WithLabelValues("error").Inc()
		return
	}

	m.publishTotal.WithLabelValues("success").Inc()
	m.tableVersion.Set(float64(table.Version()))
	m.tableRules.Set(float64(table.Len()))
}

// ObserveAdmin counts one admin action. result is a short outcome label
// such as "success", "invalid" or "forbidden".
func (m *Metrics) ObserveAdmin(action, result string) {
	m.adminActions.WithLabelValues(action, result).Inc()
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
