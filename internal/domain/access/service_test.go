package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/tcms/internal/domain/enrollments"
	"github.com/Spok95/tcms/internal/domain/payments"
	"github.com/Spok95/tcms/internal/infra/metrics"
)

type fakeEnrollments struct {
	rows []enrollments.Enrollment
	err  error
}

func (f *fakeEnrollments) Get(_ context.Context, id int64) (*enrollments.Enrollment, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			e := f.rows[i]
			return &e, nil
		}
	}
	return nil, enrollments.ErrNotFound
}

func (f *fakeEnrollments) ListByStudent(_ context.Context, studentID int64) ([]enrollments.Enrollment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []enrollments.Enrollment
	for _, e := range f.rows {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEnrollments) ListAll(context.Context) ([]enrollments.Enrollment, error) {
	return f.rows, f.err
}

type fakePayments struct {
	byEnrollment map[int64][]payments.Payment
	failFor      int64
}

func (f *fakePayments) ListByEnrollment(_ context.Context, id int64) ([]payments.Payment, error) {
	if id == f.failFor {
		return nil, errors.New("connection reset")
	}
	return f.byEnrollment[id], nil
}

func newTestService(es *fakeEnrollments, ps *fakePayments, m *metrics.Metrics) *Service {
	s := NewService(es, ps, discardLog(), m, colombo)
	s.now = func() time.Time { return time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC) }
	return s
}

func fixture() (*fakeEnrollments, *fakePayments) {
	es := &fakeEnrollments{rows: []enrollments.Enrollment{
		{ID: 1, StudentID: 10, ClassID: 100, ClassName: "Maths", PaymentStatus: "paid", CardType: "normal",
			PaymentTracking: []byte(`{"enabled": true}`), FreeDays: 7},
		{ID: 2, StudentID: 10, ClassID: 101, ClassName: "Physics", PaymentStatus: "overdue"},
		{ID: 3, StudentID: 10, ClassID: 102, ClassName: "Chemistry", PaymentStatus: "partial", Fee: 3000, PaidAmount: 1500},
		{ID: 4, StudentID: 11, ClassID: 100, ClassName: "Maths", PaymentStatus: "pending", CardType: "normal"},
	}}
	ps := &fakePayments{byEnrollment: map[int64][]payments.Payment{
		1: {{ID: 7, EnrollmentID: 1, PaidAt: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
			Amount: 3000, NextPaymentDate: ptr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))}},
	}}
	return es, ps
}

func TestService_Today(t *testing.T) {
	es, ps := fixture()
	s := newTestService(es, ps, nil)

	// 21:00 UTC is already the next morning in Colombo.
	assertDay(t, date(2025, 3, 11), s.Today())
}

func TestService_ForStudent(t *testing.T) {
	es, ps := fixture()
	s := newTestService(es, ps, nil)

	list, err := s.ForStudent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, []int64{1, 2, 3}, []int64{list[0].EnrollmentID, list[1].EnrollmentID, list[2].EnrollmentID})

	maths := list[0]
	assert.Equal(t, "Maths", maths.ClassName)
	assert.False(t, maths.CanAccess)
	assert.Equal(t, TagPaymentRequired, maths.Status)
	assert.Equal(t, 7, maths.FreeDays)
	assertDay(t, date(2025, 3, 1), *maths.NextPaymentDate)
	assertDay(t, date(2025, 3, 8), *maths.GracePeriodEndDate)

	assert.Equal(t, TagFreeCard, list[1].Status)
	assert.True(t, list[1].Flags.IsFreeCard)

	assert.Equal(t, TagHalfCard, list[2].Status)
	assert.True(t, list[2].CanAccess)
}

func TestService_ForEnrollment(t *testing.T) {
	es, ps := fixture()
	s := newTestService(es, ps, nil)

	a, err := s.ForEnrollment(context.Background(), 1)
	require.NoError(t, err)
	// Today is 2025-03-11 in Colombo, past the grace end of 2025-03-08.
	assert.False(t, a.CanAccess)
	assert.Equal(t, TagPaymentRequired, a.Status)
}

func TestService_ForEnrollmentNotFound(t *testing.T) {
	es, ps := fixture()
	s := newTestService(es, ps, nil)

	_, err := s.ForEnrollment(context.Background(), 99)
	assert.ErrorIs(t, err, enrollments.ErrNotFound)
}

func TestService_HistoryError(t *testing.T) {
	es, ps := fixture()
	ps.failFor = 3
	s := newTestService(es, ps, nil)

	_, err := s.ForStudent(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrollment 3")
}

func TestService_ListError(t *testing.T) {
	es, ps := fixture()
	es.err = errors.New("db down")
	s := newTestService(es, ps, nil)

	_, err := s.All(context.Background())
	assert.ErrorIs(t, err, es.err)
}

func TestService_DefaultFreeDays(t *testing.T) {
	es := &fakeEnrollments{rows: []enrollments.Enrollment{
		{ID: 1, StudentID: 10, PaymentStatus: "paid", CardType: "normal", PaymentTracking: []byte(`true`),
			NextPaymentDate: ptr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))},
	}}
	s := newTestService(es, &fakePayments{}, nil).WithDefaultFreeDays(14)

	a, err := s.ForEnrollment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 14, a.FreeDays)
	assertDay(t, date(2025, 3, 15), *a.GracePeriodEndDate)
	assert.True(t, a.CanAccess)
	assert.Equal(t, 4, a.DaysRemaining)
}

func TestService_BadTrackingIsDisabled(t *testing.T) {
	es := &fakeEnrollments{rows: []enrollments.Enrollment{
		{ID: 1, StudentID: 10, PaymentStatus: "paid", CardType: "normal", PaymentTracking: []byte(`"yes please"`), FreeDays: 7},
	}}
	ps := &fakePayments{byEnrollment: map[int64][]payments.Payment{
		1: {{NextPaymentDate: ptr(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))}},
	}}
	s := newTestService(es, ps, nil)

	a, err := s.ForEnrollment(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, a.PaymentTrackingEnabled)
	assert.Equal(t, 0, a.FreeDays)
	assert.True(t, a.CanAccess)
	assert.Equal(t, 0, a.DaysRemaining)
}

func TestService_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	es, ps := fixture()
	s := newTestService(es, ps, metrics.New(reg))

	_, err := s.All(context.Background())
	require.NoError(t, err)

	// payment-required/false, free-card/true, half-card/true, no-payment/false
	n, err := testutil.GatherAndCount(reg, "tcms_access_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestService_LatePayCoversGrantDayOnly(t *testing.T) {
	es := &fakeEnrollments{rows: []enrollments.Enrollment{
		{ID: 1, StudentID: 10, PaymentStatus: "late_pay", CardType: "normal",
			LatePayDate: ptr(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))},
		{ID: 2, StudentID: 10, PaymentStatus: "late_pay", CardType: "normal",
			LatePayDate: ptr(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))},
		{ID: 3, StudentID: 10, PaymentStatus: "late_pay", CardType: "normal"},
	}}
	s := newTestService(es, &fakePayments{}, nil)

	list, err := s.ForStudent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.True(t, list[0].CanAccess)
	assert.Equal(t, TagLatePay, list[0].Status)

	// Granted yesterday; the expiry job has not run yet.
	assert.False(t, list[1].CanAccess)
	assert.Equal(t, TagNoPayment, list[1].Status)

	assert.False(t, list[2].CanAccess)
}

func TestService_LegacyStatusWinsOverStoredCard(t *testing.T) {
	es := &fakeEnrollments{rows: []enrollments.Enrollment{
		{ID: 1, StudentID: 10, PaymentStatus: "overdue", CardType: "normal"},
		{ID: 2, StudentID: 10, PaymentStatus: "partial", CardType: "normal", Fee: 1000, PaidAmount: 600},
		{ID: 3, StudentID: 10, PaymentStatus: "paid", CardType: "free"},
	}}
	s := newTestService(es, &fakePayments{}, nil)

	list, err := s.ForStudent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.True(t, list[0].CanAccess)
	assert.Equal(t, TagFreeCard, list[0].Status)
	assert.True(t, list[1].CanAccess)
	assert.Equal(t, TagHalfCard, list[1].Status)
	assert.Equal(t, TagFreeCard, list[2].Status)
}

func TestService_HalfCardPaidAmountExpiresWithCycle(t *testing.T) {
	es := &fakeEnrollments{rows: []enrollments.Enrollment{
		// Paid for the cycle ending 2025-04-01.
		{ID: 1, StudentID: 10, PaymentStatus: "pending", CardType: "half", Fee: 1000, PaidAmount: 500,
			NextPaymentDate: ptr(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))},
		// Paid for the cycle that ended 2025-03-01.
		{ID: 2, StudentID: 10, PaymentStatus: "pending", CardType: "half", Fee: 1000, PaidAmount: 500,
			NextPaymentDate: ptr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))},
	}}
	s := newTestService(es, &fakePayments{}, nil)

	list, err := s.ForStudent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.True(t, list[0].CanAccess)
	assert.Equal(t, TagHalfCard, list[0].Status)

	assert.False(t, list[1].CanAccess)
	assert.Equal(t, TagPaymentRequired, list[1].Status)
}
