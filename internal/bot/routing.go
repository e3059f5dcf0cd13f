package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/tcms/internal/dialog"
	"github.com/Spok95/tcms/internal/domain/users"
)

func (b *Bot) onMessage(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	chatID := msg.Chat.ID

	if msg.IsCommand() && msg.Command() == "start" {
		b.handleStart(ctx, msg)
		return
	}

	u, err := b.users.GetByTelegramID(ctx, msg.From.ID)
	if err != nil {
		b.log.Error("get user failed", "tg_id", msg.From.ID, "err", err)
		b.reply(chatID, "Something went wrong, please try again later.")
		return
	}
	if u == nil {
		b.reply(chatID, "Send /start to register first.")
		return
	}

	if msg.IsCommand() {
		b.onCommand(ctx, msg, u)
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch text {
	case btnMyClasses:
		b.showMyClasses(ctx, chatID, u)
		return
	case btnPay:
		if b.requireCashier(chatID, u) {
			b.startPayment(ctx, chatID, 0)
		}
		return
	case btnReport:
		if b.requireCashier(chatID, u) {
			b.sendAccessReport(ctx, chatID)
		}
		return
	}

	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("get dialog state failed", "chat_id", chatID, "err", err)
		return
	}
	switch st.State {
	case dialog.StatePayAwaitEnrollment:
		b.onPayEnrollment(ctx, chatID, text)
	case dialog.StatePayAwaitAmount:
		b.onPayAmount(ctx, chatID, st.Payload, text)
	default:
		b.reply(chatID, "Use the menu below or /access to see your classes.")
	}
}

func (b *Bot) onCommand(ctx context.Context, msg *tgbotapi.Message, u *users.User) {
	chatID := msg.Chat.ID
	arg := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "access":
		b.showMyClasses(ctx, chatID, u)
	case "pay":
		if !b.requireCashier(chatID, u) {
			return
		}
		id, _ := strconv.ParseInt(arg, 10, 64)
		b.startPayment(ctx, chatID, id)
	case "latepay":
		if !b.requireCashier(chatID, u) {
			return
		}
		b.grantLatePay(ctx, chatID, u, arg)
	case "card":
		if !b.requireCashier(chatID, u) {
			return
		}
		b.assignCard(ctx, chatID, u, arg)
	case "report":
		if !b.requireCashier(chatID, u) {
			return
		}
		b.sendAccessReport(ctx, chatID)
	case "cancel":
		_ = b.states.Reset(ctx, chatID)
		b.reply(chatID, "Cancelled.")
	default:
		b.reply(chatID, "Unknown command.")
	}
}

func (b *Bot) onCallback(ctx context.Context, upd tgbotapi.Update) {
	cb := upd.CallbackQuery
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	_ = b.answerCallback(cb, "", false)

	switch cb.Data {
	case "nav:cancel", "nav:back":
		_ = b.states.Reset(ctx, chatID)
		b.editTextAndClear(chatID, msgID, "Cancelled.")
	case "pay:confirm":
		u, err := b.users.GetByTelegramID(ctx, cb.From.ID)
		if err != nil || u == nil || !u.Role.CanTakePayments() {
			b.editTextAndClear(chatID, msgID, "Not allowed.")
			return
		}
		b.confirmPayment(ctx, chatID, msgID, u)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	tg := users.Telegram{
		ID:        msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	}
	u, err := b.users.UpsertFromTelegram(ctx, tg, users.RoleStudent)
	if err != nil {
		b.log.Error("register failed", "tg_id", tg.ID, "err", err)
		b.reply(msg.Chat.ID, "Registration failed, please try again later.")
		return
	}
	_ = b.states.Reset(ctx, msg.Chat.ID)

	m := tgbotapi.NewMessage(msg.Chat.ID, "Welcome! Your account is linked.")
	m.ReplyMarkup = replyKeyboard(u.Role)
	b.send(m)
}

func (b *Bot) requireCashier(chatID int64, u *users.User) bool {
	if u.Role.CanTakePayments() {
		return true
	}
	b.reply(chatID, "Only cashiers and admins can do this.")
	return false
}
