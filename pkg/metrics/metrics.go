// Package metrics exposes Prometheus collectors for the submission
// pipeline: action outcomes and durations, optimistic list activity,
// and validation results.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the Prometheus collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "formlab").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for submission duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = registry }
}

func defaultConfig() Config {
	return Config{
		Namespace: "formlab",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors. It implements action.Observer, so it
// can be attached to an Action with action.WithObserver.
type Metrics struct {
	submissionsTotal    *prometheus.CounterVec
	submissionDuration  *prometheus.HistogramVec
	submissionsInFlight prometheus.Gauge
	optimisticApplied   prometheus.Counter
	optimisticConfirmed prometheus.Counter
	optimisticReverted  prometheus.Counter
	validationChecks    *prometheus.CounterVec
}

// New registers and returns the collectors.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		submissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submissions_total",
			Help:        "Total number of action submissions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"action", "status"}),

		submissionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submission_duration_seconds",
			Help:        "Submission duration in seconds, simulated latency included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"action"}),

		submissionsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "submissions_in_flight",
			Help:        "Number of submissions currently pending",
			ConstLabels: config.ConstLabels,
		}),

		optimisticApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "optimistic_applied_total",
			Help:        "Total number of optimistic list applies",
			ConstLabels: config.ConstLabels,
		}),

		optimisticConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "optimistic_confirmed_total",
			Help:        "Total number of optimistic entries confirmed",
			ConstLabels: config.ConstLabels,
		}),

		optimisticReverted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "optimistic_reverted_total",
			Help:        "Total number of optimistic list reverts",
			ConstLabels: config.ConstLabels,
		}),

		validationChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "validation_checks_total",
			Help:        "Total number of schema validations by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),
	}
}

// SubmissionStarted implements action.Observer.
func (m *Metrics) SubmissionStarted(action string) {
	m.submissionsInFlight.Inc()
}

// SubmissionFinished implements action.Observer.
func (m *Metrics) SubmissionFinished(action string, elapsed time.Duration, err error) {
	m.submissionsInFlight.Dec()
	status := "resolved"
	if err != nil {
		status = "rejected"
	}
	m.submissionsTotal.WithLabelValues(action, status).Inc()
	m.submissionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// RecordOptimisticApplied counts an optimistic apply.
func (m *Metrics) RecordOptimisticApplied() {
	m.optimisticApplied.Inc()
}

// RecordOptimisticConfirmed counts a confirmation.
func (m *Metrics) RecordOptimisticConfirmed() {
	m.optimisticConfirmed.Inc()
}

// RecordOptimisticReverted counts a revert.
func (m *Metrics) RecordOptimisticReverted() {
	m.optimisticReverted.Inc()
}

// RecordValidation counts a validation by result.
func (m *Metrics) RecordValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.validationChecks.WithLabelValues(result).Inc()
}
