package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	accessDecisions  *prometheus.CounterVec
	paymentsRecorded *prometheus.CounterVec
	latePayExpired   prometheus.Counter
	jobRuns          *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// expose them on /metrics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		accessDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcms",
			Name:      "access_decisions_total",
			Help:      "Class access decisions by status tag.",
		}, []string{"status", "granted"}),
		paymentsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcms",
			Name:      "payments_recorded_total",
			Help:      "Payments recorded by cashiers.",
		}, []string{"card"}),
		latePayExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: "tcms",
			Name:      "late_pay_expired_total",
			Help:      "Late-pay grants returned to pending.",
		}),
		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcms",
			Name:      "scheduler_job_runs_total",
			Help:      "Scheduler job runs by job and outcome.",
		}, []string{"job", "outcome"}),
	}
}

// All methods are safe on a nil *Metrics.

func (m *Metrics) ObserveAccess(status string, granted bool) {
	if m == nil {
		return
	}
	m.accessDecisions.WithLabelValues(status, strconv.FormatBool(granted)).Inc()
}

func (m *Metrics) ObservePayment(card string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(card).Inc()
}

func (m *Metrics) ObserveLatePayExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.latePayExpired.Add(float64(n))
}

func (m *Metrics) ObserveJob(job string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}
