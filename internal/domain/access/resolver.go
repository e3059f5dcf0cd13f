package access

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in messages, reports and APIs.
const DateLayout = "2006-01-02"

// Resolve decides whether the enrollment grants class access on today's
// calendar date. The checks run in priority order and the first match wins:
// late pay, free card, half card, then the payment-date window. Resolve has
// no side effects; callers evaluating a batch should pass one snapshot of
// today to every call.
func Resolve(e Enrollment, today time.Time) Result {
	today = Day(today)
	card := EffectiveCard(e.PaymentStatus, e.CardType)

	switch {
	case e.PaymentStatus == StatusLatePay:
		return Result{
			CanAccess: true,
			Status:    TagLatePay,
			Message:   "Late payment approved: access granted for today only",
			Flags:     Flags{IsLatePay: true},
		}
	case card == CardFree:
		return Result{
			CanAccess:     true,
			Status:        TagFreeCard,
			Message:       "Free card: unlimited access",
			DaysRemaining: UnlimitedDays,
			Flags:         Flags{IsFreeCard: true},
		}
	case card == CardHalf:
		return resolveHalfCard(e)
	}

	freeDays := e.FreeDays
	if freeDays <= 0 {
		freeDays = DefaultFreeDays
	}

	if len(e.History) == 0 {
		if e.PaymentStatus != StatusPaid {
			return Result{
				Status:  TagNoPayment,
				Message: "No payment recorded for this class",
			}
		}
		next := FirstOfNextMonth(today)
		if e.NextPaymentDate != nil {
			next = *e.NextPaymentDate
		}
		return resolveWindow(today, next, freeDays, e.Tracking.Enabled, true)
	}

	latest := e.History[len(e.History)-1]

	var next time.Time
	switch {
	case latest.NextPaymentDate != nil:
		next = *latest.NextPaymentDate
	case e.NextPaymentDate != nil:
		next = *e.NextPaymentDate
	default:
		next = FirstOfNextMonth(today)
	}

	tracking := e.Tracking.Enabled
	if latest.TrackingEnabled != nil {
		tracking = *latest.TrackingEnabled
	}
	if latest.FreeDays != nil && *latest.FreeDays > 0 {
		freeDays = *latest.FreeDays
	}

	return resolveWindow(today, next, freeDays, tracking, false)
}

func resolveHalfCard(e Enrollment) Result {
	halfFee := e.Fee / 2
	r := Result{
		CanAccess: e.PaidAmount >= halfFee,
		Flags:     Flags{IsHalfCard: true},
	}
	if r.CanAccess {
		r.Status = TagHalfCard
		r.Message = fmt.Sprintf("Half card: paid %.2f of %.2f required", e.PaidAmount, halfFee)
	} else {
		r.Status = TagPaymentRequired
		r.Message = fmt.Sprintf("Half card: paid %.2f, %.2f required for access", e.PaidAmount, halfFee)
	}
	return r
}

// resolveWindow handles the payment-date based cases. Without tracking the
// grace period has no slack and ends on the payment date itself. An enrollment
// with no recorded history and no tracking is only accessible strictly before
// its payment date.
func resolveWindow(today, next time.Time, freeDays int, tracking, synthesized bool) Result {
	next = civil(next, today.Location())
	graceEnd := next
	if tracking {
		graceEnd = next.AddDate(0, 0, freeDays)
	} else {
		freeDays = 0
	}

	r := Result{
		NextPaymentDate:        &next,
		GracePeriodEndDate:     &graceEnd,
		FreeDays:               freeDays,
		PaymentTrackingEnabled: tracking,
	}

	if synthesized && !tracking {
		if today.Before(next) {
			r.CanAccess = true
			r.Status = TagPaid
			r.DaysRemaining = DaysBetween(today, next)
			r.Message = fmt.Sprintf("Next payment due in %s", plural(r.DaysRemaining))
			return r
		}
		r.Status = TagOverdue
		r.Message = fmt.Sprintf("Payment overdue since %s", next.Format(DateLayout))
		return r
	}

	if today.After(graceEnd) {
		r.Status = TagPaymentRequired
		r.Message = fmt.Sprintf("Payment required: access ended on %s", graceEnd.Format(DateLayout))
		return r
	}

	r.CanAccess = true
	r.Status = TagPaid
	r.DaysRemaining = DaysBetween(today, graceEnd)
	if tracking {
		r.Message = fmt.Sprintf("%s remaining in grace period", plural(r.DaysRemaining))
	} else {
		r.Message = fmt.Sprintf("Next payment due in %s", plural(r.DaysRemaining))
	}
	return r
}

func plural(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
