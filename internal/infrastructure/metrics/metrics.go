package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/movledger/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Movement metrics
	MovementsRecorded *prometheus.CounterVec
	MovementFailures  *prometheus.CounterVec
	MovementDuration  *prometheus.HistogramVec
	LockWaitDuration  prometheus.Histogram

	// Statement metrics
	StatementsGenerated prometheus.Counter
	StatementAccounts   prometheus.Histogram

	// Outbox metrics
	OutboxEvents *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MovementsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "movledger_movements_recorded_total",
				Help: "Total number of movements recorded by kind",
			},
			[]string{"kind"},
		),
		MovementFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "movledger_movement_failures_total",
				Help: "Total number of rejected or failed movements by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		MovementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "movledger_movement_duration_seconds",
				Help:    "Duration of successful movement operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		LockWaitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "movledger_lock_wait_seconds",
			Help:    "Time spent waiting for an account lock",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),

		StatementsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "movledger_statements_generated_total",
			Help: "Total number of customer statements generated",
		}),
		StatementAccounts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "movledger_statement_accounts",
			Help:    "Number of accounts per generated statement",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),

		OutboxEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "movledger_outbox_published_total",
				Help: "Total outbox events handled by the publisher by result",
			},
			[]string{"result"},
		),
	}
}

// MovementRecorded counts a committed movement.
func (m *Metrics) MovementRecorded(kind domain.MovementKind, elapsed time.Duration) {
	m.MovementsRecorded.WithLabelValues(string(kind)).Inc()
	m.MovementDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// MovementFailed counts a rejected movement.
func (m *Metrics) MovementFailed(kind domain.MovementKind, reason string) {
	m.MovementFailures.WithLabelValues(string(kind), reason).Inc()
}

// LockWait observes time spent acquiring an account lock.
func (m *Metrics) LockWait(elapsed time.Duration) {
	m.LockWaitDuration.Observe(elapsed.Seconds())
}

// StatementGenerated counts a statement covering the given number of accounts.
func (m *Metrics) StatementGenerated(accounts int) {
	m.StatementsGenerated.Inc()
	m.StatementAccounts.Observe(float64(accounts))
}

// OutboxPublished counts an outbox event by result: published, failed or
// mark_failed.
func (m *Metrics) OutboxPublished(result string) {
	m.OutboxEvents.WithLabelValues(result).Inc()
}
