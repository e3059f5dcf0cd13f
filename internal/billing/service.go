package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Spok95/tcms/internal/domain/access"
	"github.com/Spok95/tcms/internal/domain/enrollments"
	"github.com/Spok95/tcms/internal/domain/payments"
	"github.com/Spok95/tcms/internal/infra/metrics"
)

var (
	ErrInvalidInput = errors.New("billing: invalid input")
	ErrUnknownCard  = errors.New("billing: unknown card type")
)

type EnrollmentStore interface {
	Get(ctx context.Context, id int64) (*enrollments.Enrollment, error)
	MarkPaid(ctx context.Context, id int64, next time.Time) error
	SetCyclePaid(ctx context.Context, id int64, paid float64, next time.Time) error
	SetLatePay(ctx context.Context, id int64, day time.Time) error
	SetCardType(ctx context.Context, id int64, card string) error
}

type PaymentStore interface {
	Insert(ctx context.Context, p payments.Payment) (int64, error)
}

type PaymentInput struct {
	EnrollmentID int64      `json:"-" validate:"required,gt=0"`
	Amount       float64    `json:"amount" validate:"required,gt=0"`
	Method       string     `json:"method" validate:"omitempty,oneof=cash card transfer"`
	PaidAt       *time.Time `json:"paidAt"`
	CashierID    *int64     `json:"-"`
}

type Service struct {
	enrollments EnrollmentStore
	payments    PaymentStore
	log         *slog.Logger
	metrics     *metrics.Metrics
	validate    *validator.Validate
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
		validate:    validator.New(),
		loc:         loc,
		now:         time.Now,
		freeDays:    access.DefaultFreeDays,
	}
}

func (s *Service) WithDefaultFreeDays(days int) *Service {
	if days > 0 {
		s.freeDays = days
	}
	return s
}

func (s *Service) today() time.Time {
	return access.Day(s.now().In(s.loc))
}

// RecordPayment stores a payment and moves the enrollment's next due date
// to the first of the following month. The class's grace configuration at
// payment time is copied onto the payment record. Half-card enrollments
// accumulate the amount paid within one cycle instead of switching to paid.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (payments.Payment, error) {
	if err := s.validate.Struct(in); err != nil {
		return payments.Payment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	e, err := s.enrollments.Get(ctx, in.EnrollmentID)
	if err != nil {
		return payments.Payment{}, err
	}

	paidAt := s.today()
	if in.PaidAt != nil {
		paidAt = access.Day(in.PaidAt.In(s.loc))
	}
	next := access.FirstOfNextMonth(paidAt)

	tr, err := access.ParseTracking(e.PaymentTracking)
	if err != nil {
		s.log.Warn("payment tracking ignored", "enrollment_id", e.ID, "err", err)
	}
	freeDays := e.FreeDays
	if freeDays <= 0 {
		freeDays = s.freeDays
	}
	method := in.Method
	if method == "" {
		method = "cash"
	}

	p := payments.Payment{
		EnrollmentID:    e.ID,
		PaidAt:          paidAt,
		Amount:          in.Amount,
		NextPaymentDate: &next,
		FreeDays:        &freeDays,
		TrackingEnabled: &tr.Enabled,
		Method:          method,
		CashierID:       in.CashierID,
	}
	id, err := s.payments.Insert(ctx, p)
	if err != nil {
		return payments.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	p.ID = id

	card := access.EffectiveCard(access.PaymentStatus(e.PaymentStatus), access.CardType(e.CardType))
	// Legacy rows carry the card in the status, which the update below
	// replaces; store it explicitly first.
	if e.CardType != string(card) {
		if err := s.enrollments.SetCardType(ctx, e.ID, string(card)); err != nil {
			return p, fmt.Errorf("update enrollment %d: %w", e.ID, err)
		}
	}

	if card == access.CardHalf {
		paid, cycleEnd := s.cyclePaid(e, in.Amount, next)
		err = s.enrollments.SetCyclePaid(ctx, e.ID, paid, cycleEnd)
	} else {
		err = s.enrollments.MarkPaid(ctx, e.ID, next)
	}
	if err != nil {
		return p, fmt.Errorf("update enrollment %d: %w", e.ID, err)
	}

	s.metrics.ObservePayment(string(card))
	s.log.Info("payment recorded",
		"payment_id", p.ID,
		"enrollment_id", e.ID,
		"amount", in.Amount,
		"next_payment_date", next.Format(access.DateLayout),
	)
	return p, nil
}

// cyclePaid adds amount to the enrollment's running total when the payment
// falls in the stored cycle and starts a new total for a later cycle. A
// payment for an earlier cycle leaves the current one untouched.
func (s *Service) cyclePaid(e *enrollments.Enrollment, amount float64, next time.Time) (float64, time.Time) {
	if e.NextPaymentDate == nil {
		return amount, next
	}
	stored := access.DateIn(*e.NextPaymentDate, s.loc)
	switch {
	case stored.Equal(next):
		return e.PaidAmount + amount, next
	case stored.Before(next):
		return amount, next
	default:
		return e.PaidAmount, stored
	}
}

// GrantLatePay lets the student attend today without a current payment.
func (s *Service) GrantLatePay(ctx context.Context, enrollmentID int64) error {
	if enrollmentID <= 0 {
		return fmt.Errorf("%w: enrollment id", ErrInvalidInput)
	}
	today := s.today()
	if err := s.enrollments.SetLatePay(ctx, enrollmentID, today); err != nil {
		return err
	}
	s.log.Info("late pay granted", "enrollment_id", enrollmentID, "day", today.Format(access.DateLayout))
	return nil
}

func (s *Service) AssignCard(ctx context.Context, enrollmentID int64, card access.CardType) error {
	switch card {
	case access.CardNormal, access.CardFree, access.CardHalf:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCard, card)
	}
	if err := s.enrollments.SetCardType(ctx, enrollmentID, string(card)); err != nil {
		return err
	}
	s.log.Info("card assigned", "enrollment_id", enrollmentID, "card", card)
	return nil
}
