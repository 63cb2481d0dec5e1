package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReservationMetrics counts reservation lifecycle outcomes by result label.
type ReservationMetrics struct {
	outcomes *prometheus.CounterVec
}

// NewReservationMetrics registers the reservation counters on the provided registerer.
func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	if reg == nil {
		return &ReservationMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_outcomes_total",
		Help: "Reservation operations by outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(outcomes)
	return &ReservationMetrics{outcomes: outcomes}
}

// IncOutcome increments the counter for the given operation/outcome pair.
func (r *ReservationMetrics) IncOutcome(operation, outcome string) {
	if r == nil || r.outcomes == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	r.outcomes.WithLabelValues(operation, outcome).Inc()
}
