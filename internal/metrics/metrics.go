package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"water-scheduler-backend/internal/domain"
)

const (
	OutcomeOK                = "ok"
	OutcomeValidation        = "validation"
	OutcomeNotFound          = "not_found"
	OutcomeDuplicate         = "duplicate"
	OutcomeCapacity          = "capacity_exceeded"
	OutcomeContention        = "contention"
	OutcomeSlotUnavailable   = "slot_unavailable"
	OutcomeInvalidTransition = "invalid_transition"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeHouseholdInactive = "household_inactive"
	OutcomeForbidden         = "forbidden"
	OutcomeDeadlineExceeded  = "deadline_exceeded"
	OutcomeUnknown           = "unknown"
)

// Metrics holds the booking engine's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	retries        *prometheus.CounterVec
	slotsGenerated prometheus.Counter
	notifications  *prometheus.CounterVec
	jobRuns        *prometheus.CounterVec
}

func New(registerer prometheus.Registerer, namespace string) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "water_scheduler"
	}

	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Booking engine operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_operation_duration_seconds",
			Help:      "Booking engine operation latency including retries.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contention_retries_total",
			Help:      "Atomic units re-run after lock contention.",
		}, []string{"operation"}),
		slotsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_generated_total",
			Help:      "Slots inserted by the slot generator.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Notification deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by outcome.",
		}, []string{"job", "outcome"}),
	}
	registerer.MustRegister(m.operations, m.duration, m.retries, m.slotsGenerated, m.notifications, m.jobRuns)
	return m
}

// Outcome maps an engine error onto a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrDuplicateBooking):
		return OutcomeDuplicate
	case errors.Is(err, domain.ErrCapacityExceeded):
		return OutcomeCapacity
	case errors.Is(err, domain.ErrTransientContention):
		return OutcomeContention
	case errors.Is(err, domain.ErrSlotUnavailable):
		return OutcomeSlotUnavailable
	case errors.Is(err, domain.ErrInvalidTransition):
		return OutcomeInvalidTransition
	case errors.Is(err, domain.ErrInsufficientFunds):
		return OutcomeInsufficientFunds
	case errors.Is(err, domain.ErrHouseholdInactive):
		return OutcomeHouseholdInactive
	case errors.Is(err, domain.ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeDeadlineExceeded
	}
	return OutcomeUnknown
}

func (m *Metrics) ObserveOperation(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, Outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Retry(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

func (m *Metrics) SlotsGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.slotsGenerated.Add(float64(n))
}

func (m *Metrics) NotificationDelivered(sink string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = "error"
	}
	m.notifications.WithLabelValues(sink, outcome).Inc()
}

func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, Outcome(err)).Inc()
}
