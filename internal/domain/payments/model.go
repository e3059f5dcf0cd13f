package payments

import "time"

// Payment is one entry of an enrollment's payment history. FreeDays and
// TrackingEnabled are nil when the payment did not override the class
// configuration.
type Payment struct {
	ID              int64
	EnrollmentID    int64
	PaidAt          time.Time
	Amount          float64
	NextPaymentDate *time.Time
	FreeDays        *int
	TrackingEnabled *bool
	Method          string // cash|card|transfer
	CashierID       *int64
	CreatedAt       time.Time
}
