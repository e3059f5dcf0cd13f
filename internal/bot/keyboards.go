package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/tcms/internal/domain/users"
)

const (
	btnMyClasses = "My classes"
	btnPay       = "Record payment"
	btnReport    = "Access report"
)

func navKeyboard(back bool, cancel bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	if back {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "nav:back"))
	}
	if cancel {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", "nav:cancel"))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func payConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", "pay:confirm"),
		),
		navKeyboard(false, true).InlineKeyboard[0],
	)
}

func replyKeyboard(role users.Role) tgbotapi.ReplyKeyboardMarkup {
	if role.CanTakePayments() {
		return tgbotapi.ReplyKeyboardMarkup{
			ResizeKeyboard: true,
			Keyboard: [][]tgbotapi.KeyboardButton{
				{tgbotapi.NewKeyboardButton(btnPay)},
				{tgbotapi.NewKeyboardButton(btnReport)},
			},
		}
	}
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnMyClasses)},
		},
	}
}
