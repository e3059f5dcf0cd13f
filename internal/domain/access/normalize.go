package access

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// LegacyEnrollment is the enrollment record as the class-management REST
// backends return it. Card type is folded into paymentStatus there and
// paymentTracking may be a bool, a JSON string or an object.
type LegacyEnrollment struct {
	Fee                     *float64        `json:"fee"`
	TotalFee                *float64        `json:"total_fee"`
	PaymentStatus           string          `json:"paymentStatus"`
	PaymentTracking         json.RawMessage `json:"paymentTracking"`
	PaymentTrackingFreeDays *int            `json:"paymentTrackingFreeDays"`
	NextPaymentDate         string          `json:"nextPaymentDate"`
	PaymentHistory          []LegacyPayment `json:"paymentHistory"`
	PaidAmount              float64         `json:"paidAmount"`
}

type LegacyPayment struct {
	Date                   string  `json:"date"`
	Amount                 float64 `json:"amount"`
	NextPaymentDate        string  `json:"nextPaymentDate"`
	FreeDays               *int    `json:"freeDays"`
	PaymentTrackingEnabled *bool   `json:"paymentTrackingEnabled"`
}

// Normalize converts a legacy record into an Enrollment. "overdue" becomes
// a free card and "partial" a half card. Malformed tracking or dates are
// logged and treated as absent.
func Normalize(log *slog.Logger, raw LegacyEnrollment, loc *time.Location) Enrollment {
	e := Enrollment{
		PaymentStatus: PaymentStatus(strings.TrimSpace(raw.PaymentStatus)),
		FreeDays:      DefaultFreeDays,
		PaidAmount:    raw.PaidAmount,
	}

	switch {
	case raw.Fee != nil:
		e.Fee = *raw.Fee
	case raw.TotalFee != nil:
		e.Fee = *raw.TotalFee
	}

	e.CardType = EffectiveCard(e.PaymentStatus, "")

	tr, err := ParseTracking(raw.PaymentTracking)
	if err != nil {
		log.Warn("payment tracking ignored", "raw", string(raw.PaymentTracking), "err", err)
	}
	e.Tracking = tr

	if raw.PaymentTrackingFreeDays != nil {
		e.FreeDays = *raw.PaymentTrackingFreeDays
	}
	e.NextPaymentDate = parseDate(log, raw.NextPaymentDate, loc)

	if len(raw.PaymentHistory) > 0 {
		e.History = make([]Payment, 0, len(raw.PaymentHistory))
	}
	for _, p := range raw.PaymentHistory {
		var date time.Time
		if d := parseDate(log, p.Date, loc); d != nil {
			date = *d
		}
		e.History = append(e.History, Payment{
			Date:            date,
			Amount:          p.Amount,
			NextPaymentDate: parseDate(log, p.NextPaymentDate, loc),
			FreeDays:        p.FreeDays,
			TrackingEnabled: p.PaymentTrackingEnabled,
		})
	}
	return e
}

func parseDate(log *slog.Logger, s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return &t
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		log.Warn("date ignored", "raw", s, "err", err)
		return nil
	}
	t = civil(t.In(loc), loc)
	return &t
}
