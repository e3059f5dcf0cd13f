package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/tcms/internal/billing"
	"github.com/Spok95/tcms/internal/dialog"
	"github.com/Spok95/tcms/internal/domain/access"
	"github.com/Spok95/tcms/internal/domain/enrollments"
	"github.com/Spok95/tcms/internal/domain/users"
)

// startPayment begins the cashier flow; enrollmentID 0 asks for it first.
func (b *Bot) startPayment(ctx context.Context, chatID, enrollmentID int64) {
	if enrollmentID <= 0 {
		_ = b.states.Set(ctx, chatID, dialog.StatePayAwaitEnrollment, dialog.Payload{})
		b.reply(chatID, "Enter the enrollment number:")
		return
	}
	b.onPayEnrollment(ctx, chatID, strconv.FormatInt(enrollmentID, 10))
}

func (b *Bot) onPayEnrollment(ctx context.Context, chatID int64, text string) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		b.reply(chatID, "Enrollment number must be a positive integer. Try again or /cancel.")
		return
	}
	a, err := b.access.ForEnrollment(ctx, id)
	if err != nil {
		if errors.Is(err, enrollments.ErrNotFound) {
			b.reply(chatID, "Enrollment not found. Try again or /cancel.")
			return
		}
		b.log.Error("load enrollment failed", "enrollment_id", id, "err", err)
		b.reply(chatID, "Could not load the enrollment.")
		return
	}

	_ = b.states.Set(ctx, chatID, dialog.StatePayAwaitAmount, dialog.Payload{"enrollment_id": float64(id)})
	b.reply(chatID, fmt.Sprintf("%s, %s\nCurrent status: %s\nEnter the amount paid:",
		a.StudentName, a.ClassName, a.Message))
}

func (b *Bot) onPayAmount(ctx context.Context, chatID int64, p dialog.Payload, text string) {
	amount, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", "."), 64)
	if err != nil || amount <= 0 {
		b.reply(chatID, "Amount must be a positive number. Try again or /cancel.")
		return
	}
	id, ok := dialog.GetInt64(p, "enrollment_id")
	if !ok {
		_ = b.states.Reset(ctx, chatID)
		b.reply(chatID, "Session expired, start again.")
		return
	}

	p["amount"] = amount
	_ = b.states.Set(ctx, chatID, dialog.StatePayConfirm, p)

	m := tgbotapi.NewMessage(chatID, fmt.Sprintf("Record %.2f for enrollment #%d?", amount, id))
	m.ReplyMarkup = payConfirmKeyboard()
	b.send(m)
}

func (b *Bot) confirmPayment(ctx context.Context, chatID int64, msgID int, u *users.User) {
	st, err := b.states.Get(ctx, chatID)
	if err != nil || st.State != dialog.StatePayConfirm {
		b.editTextAndClear(chatID, msgID, "Nothing to confirm.")
		return
	}
	id, okID := dialog.GetInt64(st.Payload, "enrollment_id")
	amount, okAmount := dialog.GetFloat(st.Payload, "amount")
	if !okID || !okAmount {
		_ = b.states.Reset(ctx, chatID)
		b.editTextAndClear(chatID, msgID, "Session expired, start again.")
		return
	}

	cashierID := u.ID
	pay, err := b.cashier.RecordPayment(ctx, billing.PaymentInput{
		EnrollmentID: id,
		Amount:       amount,
		Method:       "cash",
		CashierID:    &cashierID,
	})
	_ = b.states.Reset(ctx, chatID)
	if err != nil {
		b.log.Error("record payment failed", "enrollment_id", id, "err", err)
		b.editTextAndClear(chatID, msgID, "Payment was not recorded: "+err.Error())
		return
	}

	text := fmt.Sprintf("Payment #%d recorded: %.2f.", pay.ID, pay.Amount)
	if pay.NextPaymentDate != nil {
		text += "\nNext payment: " + pay.NextPaymentDate.Format(access.DateLayout)
	}
	b.editTextAndClear(chatID, msgID, text)
	b.notifyAdmin(fmt.Sprintf("💰 %s recorded %.2f for enrollment #%d (payment #%d)",
		u.DisplayName(), pay.Amount, id, pay.ID))
}

func (b *Bot) grantLatePay(ctx context.Context, chatID int64, u *users.User, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		b.reply(chatID, "Usage: /latepay <enrollment number>")
		return
	}
	if err := b.cashier.GrantLatePay(ctx, id); err != nil {
		if errors.Is(err, enrollments.ErrNotFound) {
			b.reply(chatID, "Enrollment not found.")
			return
		}
		b.log.Error("grant late pay failed", "enrollment_id", id, "err", err)
		b.reply(chatID, "Could not grant late pay.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Late pay granted for enrollment #%d, today only.", id))
	b.notifyAdmin(fmt.Sprintf("⏳ %s granted late pay for enrollment #%d", u.DisplayName(), id))
}

func (b *Bot) assignCard(ctx context.Context, chatID int64, u *users.User, arg string) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		b.reply(chatID, "Usage: /card <enrollment number> <normal|free|half>")
		return
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || id <= 0 {
		b.reply(chatID, "Usage: /card <enrollment number> <normal|free|half>")
		return
	}
	card := access.CardType(strings.ToLower(fields[1]))
	if err := b.cashier.AssignCard(ctx, id, card); err != nil {
		switch {
		case errors.Is(err, billing.ErrUnknownCard):
			b.reply(chatID, "Card must be normal, free or half.")
		case errors.Is(err, enrollments.ErrNotFound):
			b.reply(chatID, "Enrollment not found.")
		default:
			b.log.Error("assign card failed", "enrollment_id", id, "err", err)
			b.reply(chatID, "Could not assign the card.")
		}
		return
	}
	b.reply(chatID, fmt.Sprintf("Enrollment #%d now has a %s card.", id, card))
	b.notifyAdmin(fmt.Sprintf("🎫 %s set a %s card on enrollment #%d", u.DisplayName(), card, id))
}
