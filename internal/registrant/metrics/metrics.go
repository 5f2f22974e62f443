package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module.
type Metrics struct {
	Registrations        *prometheus.CounterVec
	RegistrationFailures *prometheus.CounterVec
	ScoreUpdates         *prometheus.CounterVec
	SlipSendFailures     prometheus.Counter
	RegisterDuration     prometheus.Histogram
	ScoreUpdateDuration  prometheus.Histogram
}

// New creates a Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sebexam_registrations_total",
			Help: "Completed registrations by exam type",
		}, []string{"exam_type"}),
		RegistrationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sebexam_registration_failures_total",
			Help: "Rejected registrations by reason",
		}, []string{"reason"}),
		ScoreUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sebexam_score_updates_total",
			Help: "Applied score updates by exam type",
		}, []string{"exam_type"}),
		SlipSendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sebexam_slip_send_failures_total",
			Help: "Registration slip emails that could not be delivered",
		}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sebexam_register_duration_seconds",
			Help:    "Duration of the registration workflow",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ScoreUpdateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sebexam_score_update_duration_seconds",
			Help:    "Duration of score update transactions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveRegister records the duration of one registration attempt.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// ObserveScoreUpdate records the duration of one score update.
func (m *Metrics) ObserveScoreUpdate(start time.Time) {
	m.ScoreUpdateDuration.Observe(time.Since(start).Seconds())
}
