package payments

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// ListByEnrollment returns the history in insertion order, oldest first.
func (r *Repo) ListByEnrollment(ctx context.Context, enrollmentID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, enrollment_id, paid_at, amount, next_payment_date, free_days,
		       tracking_enabled, method, cashier_id, created_at
		FROM payments
		WHERE enrollment_id = $1
		ORDER BY id
	`, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID,
			&p.EnrollmentID,
			&p.PaidAt,
			&p.Amount,
			&p.NextPaymentDate,
			&p.FreeDays,
			&p.TrackingEnabled,
			&p.Method,
			&p.CashierID,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Insert(ctx context.Context, p Payment) (int64, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (enrollment_id, paid_at, amount, next_payment_date, free_days, tracking_enabled, method, cashier_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, p.EnrollmentID, p.PaidAt, p.Amount, p.NextPaymentDate, p.FreeDays, p.TrackingEnabled, p.Method, p.CashierID)
	var id int64
	return id, row.Scan(&id)
}
