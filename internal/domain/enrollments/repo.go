package enrollments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("enrollments: not found")

type Repo struct{ db *pgxpool.Pool }

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{db: db} }

const selectEnrollment = `
SELECT e.id, e.student_id, e.class_id, c.name, COALESCE(u.username, ''),
       e.fee, e.payment_status, COALESCE(e.card_type, ''), c.payment_tracking, c.free_days,
       e.next_payment_date, e.paid_amount, e.late_pay_date, e.created_at, e.updated_at
FROM enrollments e
JOIN classes c ON c.id = e.class_id
LEFT JOIN users u ON u.id = e.student_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanEnrollment(row scanner) (Enrollment, error) {
	var e Enrollment
	err := row.Scan(
		&e.ID,
		&e.StudentID,
		&e.ClassID,
		&e.ClassName,
		&e.StudentName,
		&e.Fee,
		&e.PaymentStatus,
		&e.CardType,
		&e.PaymentTracking,
		&e.FreeDays,
		&e.NextPaymentDate,
		&e.PaidAmount,
		&e.LatePayDate,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Enrollment, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (*Enrollment, error) {
	e, err := scanEnrollment(r.db.QueryRow(ctx, selectEnrollment+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *Repo) ListByStudent(ctx context.Context, studentID int64) ([]Enrollment, error) {
	return r.list(ctx, selectEnrollment+` WHERE e.student_id = $1 ORDER BY e.id`, studentID)
}

func (r *Repo) ListAll(ctx context.Context) ([]Enrollment, error) {
	return r.list(ctx, selectEnrollment+` ORDER BY e.student_id, e.id`)
}

func (r *Repo) exec(ctx context.Context, q string, args ...any) error {
	tag, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLatePay marks the enrollment as late_pay for the given day only.
func (r *Repo) SetLatePay(ctx context.Context, id int64, day time.Time) error {
	return r.exec(ctx, `
UPDATE enrollments
SET payment_status = 'late_pay',
    late_pay_date  = $2,
    updated_at     = NOW()
WHERE id = $1`, id, day)
}

// SetCardType stores an explicit card. A legacy overdue or partial status
// would keep overriding it, so such a status is moved to pending.
func (r *Repo) SetCardType(ctx context.Context, id int64, card string) error {
	return r.exec(ctx, `
UPDATE enrollments
SET card_type      = $2,
    payment_status = CASE WHEN payment_status IN ('overdue', 'partial') THEN 'pending' ELSE payment_status END,
    updated_at     = NOW()
WHERE id = $1`, id, card)
}

// MarkPaid records a full payment: status becomes paid and the next due
// date moves forward. A pending late-pay grant is cleared.
func (r *Repo) MarkPaid(ctx context.Context, id int64, next time.Time) error {
	return r.exec(ctx, `
UPDATE enrollments
SET payment_status    = 'paid',
    next_payment_date = $2,
    late_pay_date     = NULL,
    updated_at        = NOW()
WHERE id = $1`, id, next)
}

// SetCyclePaid stores the amount paid towards the half-card cycle that
// ends at next.
func (r *Repo) SetCyclePaid(ctx context.Context, id int64, paid float64, next time.Time) error {
	return r.exec(ctx, `
UPDATE enrollments
SET paid_amount       = $2,
    next_payment_date = $3,
    late_pay_date     = NULL,
    payment_status    = CASE WHEN payment_status = 'late_pay' THEN 'pending' ELSE payment_status END,
    updated_at        = NOW()
WHERE id = $1`, id, paid, next)
}

// ExpireLatePay returns every late-pay grant dated before day to pending.
func (r *Repo) ExpireLatePay(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE enrollments
SET payment_status = 'pending',
    late_pay_date  = NULL,
    updated_at     = NOW()
WHERE payment_status = 'late_pay'
  AND (late_pay_date IS NULL OR late_pay_date < $1)`, day)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
