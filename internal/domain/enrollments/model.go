package enrollments

import "time"

// Enrollment is a student's place in a class. PaymentTracking holds the raw
// JSONB stored on the class; it is parsed once by the access package.
type Enrollment struct {
	ID              int64
	StudentID       int64
	ClassID         int64
	ClassName       string
	StudentName     string
	Fee             float64
	PaymentStatus   string // paid|pending|overdue|partial|late_pay
	CardType        string // normal|free|half, empty for legacy rows
	PaymentTracking []byte
	FreeDays        int
	NextPaymentDate *time.Time
	PaidAmount      float64
	LatePayDate     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
