package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Spok95/tcms/internal/domain/enrollments"
	"github.com/Spok95/tcms/internal/domain/payments"
	"github.com/Spok95/tcms/internal/infra/metrics"
)

type EnrollmentStore interface {
	Get(ctx context.Context, id int64) (*enrollments.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]enrollments.Enrollment, error)
	ListAll(ctx context.Context) ([]enrollments.Enrollment, error)
}

type PaymentStore interface {
	ListByEnrollment(ctx context.Context, enrollmentID int64) ([]payments.Payment, error)
}

// ClassAccess is a resolved enrollment as shown on a student's class card.
type ClassAccess struct {
	EnrollmentID int64  `json:"enrollmentId"`
	StudentID    int64  `json:"studentId"`
	StudentName  string `json:"studentName"`
	ClassID      int64  `json:"classId"`
	ClassName    string `json:"className"`
	Result
}

const historyFetchLimit = 8

type Service struct {
	enrollments EnrollmentStore
	payments    PaymentStore
	log         *slog.Logger
	metrics     *metrics.Metrics
	loc         *time.Location
	now         func() time.Time
	freeDays    int
}

func NewService(es EnrollmentStore, ps PaymentStore, log *slog.Logger, m *metrics.Metrics, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		enrollments: es,
		payments:    ps,
		log:         log,
		metrics:     m,
		loc:         loc,
		now:         time.Now,
		freeDays:    DefaultFreeDays,
	}
}

// WithDefaultFreeDays sets the grace length used for classes that have
// none configured.
func (s *Service) WithDefaultFreeDays(days int) *Service {
	if days > 0 {
		s.freeDays = days
	}
	return s
}

// Today is the evaluation date every resolution of a batch shares.
func (s *Service) Today() time.Time {
	return Day(s.now().In(s.loc))
}

func (s *Service) ForStudent(ctx context.Context, studentID int64) ([]ClassAccess, error) {
	list, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments of student %d: %w", studentID, err)
	}
	return s.resolveAll(ctx, list, s.Today())
}

func (s *Service) All(ctx context.Context) ([]ClassAccess, error) {
	list, err := s.enrollments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return s.resolveAll(ctx, list, s.Today())
}

func (s *Service) ForEnrollment(ctx context.Context, enrollmentID int64) (ClassAccess, error) {
	e, err := s.enrollments.Get(ctx, enrollmentID)
	if err != nil {
		return ClassAccess{}, fmt.Errorf("get enrollment %d: %w", enrollmentID, err)
	}
	hist, err := s.payments.ListByEnrollment(ctx, e.ID)
	if err != nil {
		return ClassAccess{}, fmt.Errorf("payment history of enrollment %d: %w", e.ID, err)
	}
	return s.resolve(*e, hist, s.Today()), nil
}

// resolveAll fetches payment histories concurrently; the output keeps the
// order of list.
func (s *Service) resolveAll(ctx context.Context, list []enrollments.Enrollment, today time.Time) ([]ClassAccess, error) {
	out := make([]ClassAccess, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyFetchLimit)
	for i := range list {
		g.Go(func() error {
			hist, err := s.payments.ListByEnrollment(gctx, list[i].ID)
			if err != nil {
				return fmt.Errorf("payment history of enrollment %d: %w", list[i].ID, err)
			}
			out[i] = s.resolve(list[i], hist, today)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) resolve(e enrollments.Enrollment, hist []payments.Payment, today time.Time) ClassAccess {
	res := Resolve(s.toEnrollment(e, hist, today), today)
	s.metrics.ObserveAccess(string(res.Status), res.CanAccess)
	return ClassAccess{
		EnrollmentID: e.ID,
		StudentID:    e.StudentID,
		StudentName:  e.StudentName,
		ClassID:      e.ClassID,
		ClassName:    e.ClassName,
		Result:       res,
	}
}

func (s *Service) toEnrollment(e enrollments.Enrollment, hist []payments.Payment, today time.Time) Enrollment {
	tr, err := ParseTracking(e.PaymentTracking)
	if err != nil {
		s.log.Warn("payment tracking ignored",
			"enrollment_id", e.ID,
			"class_id", e.ClassID,
			"err", err,
		)
	}

	out := Enrollment{
		Fee:             e.Fee,
		PaymentStatus:   PaymentStatus(e.PaymentStatus),
		CardType:        CardType(e.CardType),
		Tracking:        tr,
		FreeDays:        e.FreeDays,
		NextPaymentDate: e.NextPaymentDate,
		PaidAmount:      e.PaidAmount,
	}
	if out.FreeDays <= 0 {
		out.FreeDays = s.freeDays
	}
	out.CardType = EffectiveCard(out.PaymentStatus, out.CardType)

	// Late pay covers the grant day only, even before the expiry job runs.
	if out.PaymentStatus == StatusLatePay &&
		(e.LatePayDate == nil || !DateIn(*e.LatePayDate, s.loc).Equal(today)) {
		out.PaymentStatus = StatusPending
	}

	// paid_amount belongs to the cycle ending at next_payment_date.
	if out.CardType == CardHalf && e.NextPaymentDate != nil &&
		!today.Before(DateIn(*e.NextPaymentDate, s.loc)) {
		out.PaidAmount = 0
	}

	if len(hist) > 0 {
		out.History = make([]Payment, 0, len(hist))
	}
	for _, p := range hist {
		out.History = append(out.History, Payment{
			Date:            p.PaidAt,
			Amount:          p.Amount,
			NextPaymentDate: p.NextPaymentDate,
			FreeDays:        p.FreeDays,
			TrackingEnabled: p.TrackingEnabled,
		})
	}
	return out
}
