package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAccess("paid", true)
	m.ObserveAccess("paid", true)
	m.ObserveAccess("payment-required", false)
	m.ObservePayment("half")
	m.ObserveLatePayExpired(3)
	m.ObserveLatePayExpired(0)
	m.ObserveJob("late_pay_expiry", nil)
	m.ObserveJob("late_pay_expiry", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.accessDecisions.WithLabelValues("paid", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.accessDecisions.WithLabelValues("payment-required", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsRecorded.WithLabelValues("half")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("late_pay_expiry", "error")))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP tcms_late_pay_expired_total Late-pay grants returned to pending.
# TYPE tcms_late_pay_expired_total counter
tcms_late_pay_expired_total 3
`), "tcms_late_pay_expired_total")
	require.NoError(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAccess("paid", true)
		m.ObservePayment("normal")
		m.ObserveLatePayExpired(1)
		m.ObserveJob("x", nil)
	})
}
