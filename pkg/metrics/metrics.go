package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the scheduling engine's application metrics
type Metrics struct {
	BookingsTotal       prometheus.Counter
	ReschedulesTotal    prometheus.Counter
	SlotConflictsTotal  *prometheus.CounterVec
	StatusTransitions   *prometheus.CounterVec
	InvalidTransitions  prometheus.Counter
	SlotComputations    prometheus.Histogram
	AvailabilityQueries prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		BookingsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_total",
			Help:      "Total number of successfully booked appointments",
		}),
		ReschedulesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reschedules_total",
			Help:      "Total number of successfully rescheduled appointments",
		}),
		SlotConflictsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken",
		}, []string{"operation"}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_transitions_total",
			Help:      "Appointment status transitions by edge",
		}, []string{"from", "to"}),
		InvalidTransitions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "invalid_transitions_total",
			Help:      "Rejected appointment status transitions",
		}),
		SlotComputations: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_computation_duration_seconds",
			Help:      "Time spent computing available slots",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		AvailabilityQueries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "availability_queries_total",
			Help:      "Total number of availability lookups",
		}),
	}
}
