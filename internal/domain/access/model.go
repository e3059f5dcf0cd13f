package access

import "time"

type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
	StatusOverdue PaymentStatus = "overdue"
	StatusPartial PaymentStatus = "partial"
	StatusLatePay PaymentStatus = "late_pay"
)

// CardType is kept apart from PaymentStatus; legacy records encode it
// inside the status field (see Normalize).
type CardType string

const (
	CardNormal CardType = "normal"
	CardFree   CardType = "free"
	CardHalf   CardType = "half"
)

// EffectiveCard is the card a record grants. The legacy statuses overdue
// and partial always mean a free and a half card; otherwise the stored card
// applies and an empty one is normal.
func EffectiveCard(status PaymentStatus, card CardType) CardType {
	switch status {
	case StatusOverdue:
		return CardFree
	case StatusPartial:
		return CardHalf
	}
	if card == "" {
		return CardNormal
	}
	return card
}

type Tag string

const (
	TagLatePay         Tag = "late-pay"
	TagFreeCard        Tag = "free-card"
	TagHalfCard        Tag = "half-card"
	TagPaymentRequired Tag = "payment-required"
	TagPaid            Tag = "paid"
	TagNoPayment       Tag = "no-payment"
	TagOverdue         Tag = "overdue"
)

const (
	DefaultFreeDays = 7
	UnlimitedDays   = 999
)

type Payment struct {
	Date            time.Time
	Amount          float64
	NextPaymentDate *time.Time
	FreeDays        *int
	TrackingEnabled *bool
}

type Enrollment struct {
	Fee             float64
	PaymentStatus   PaymentStatus
	CardType        CardType
	Tracking        Tracking
	FreeDays        int
	NextPaymentDate *time.Time
	PaidAmount      float64
	// History is in insertion order; the last entry is the latest payment.
	History []Payment
}

type Flags struct {
	IsLatePay  bool `json:"isLatePay"`
	IsFreeCard bool `json:"isFreeCard"`
	IsHalfCard bool `json:"isHalfCard"`
}

type Result struct {
	CanAccess              bool       `json:"canAccess"`
	Status                 Tag        `json:"status"`
	Message                string     `json:"message"`
	DaysRemaining          int        `json:"daysRemaining"`
	NextPaymentDate        *time.Time `json:"nextPaymentDate"`
	GracePeriodEndDate     *time.Time `json:"gracePeriodEndDate"`
	FreeDays               int        `json:"freeDays"`
	PaymentTrackingEnabled bool       `json:"paymentTrackingEnabled"`
	Flags                  Flags      `json:"flags"`
}
