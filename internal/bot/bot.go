package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/tcms/internal/billing"
	"github.com/Spok95/tcms/internal/dialog"
	"github.com/Spok95/tcms/internal/domain/access"
	"github.com/Spok95/tcms/internal/domain/payments"
	"github.com/Spok95/tcms/internal/domain/users"
)

type UserStore interface {
	GetByTelegramID(ctx context.Context, tgID int64) (*users.User, error)
	GetByID(ctx context.Context, id int64) (*users.User, error)
	UpsertFromTelegram(ctx context.Context, tg users.Telegram, role users.Role) (*users.User, error)
}

type StateStore interface {
	Get(ctx context.Context, chatID int64) (*dialog.Item, error)
	Set(ctx context.Context, chatID int64, state dialog.State, payload dialog.Payload) error
	Reset(ctx context.Context, chatID int64) error
}

type AccessReader interface {
	ForStudent(ctx context.Context, studentID int64) ([]access.ClassAccess, error)
	ForEnrollment(ctx context.Context, enrollmentID int64) (access.ClassAccess, error)
	All(ctx context.Context) ([]access.ClassAccess, error)
	Today() time.Time
}

type Cashier interface {
	RecordPayment(ctx context.Context, in billing.PaymentInput) (payments.Payment, error)
	GrantLatePay(ctx context.Context, enrollmentID int64) error
	AssignCard(ctx context.Context, enrollmentID int64, card access.CardType) error
}

type Bot struct {
	api       *tgbotapi.BotAPI
	log       *slog.Logger
	users     UserStore
	states    StateStore
	access    AccessReader
	cashier   Cashier
	adminChat int64
}

func New(api *tgbotapi.BotAPI, log *slog.Logger,
	usersRepo UserStore, statesRepo StateStore,
	accessSvc AccessReader, cashier Cashier, adminChatID int64) *Bot {

	return &Bot{
		api: api, log: log, users: usersRepo, states: statesRepo,
		access: accessSvc, cashier: cashier, adminChat: adminChatID,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.Message != nil {
				b.onMessage(ctx, upd)
			} else if upd.CallbackQuery != nil {
				b.onCallback(ctx, upd)
			}
		}
	}
}

var ErrNoChat = errors.New("bot: student has no linked chat")

// NotifyStudent sends text to the student's Telegram chat.
func (b *Bot) NotifyStudent(ctx context.Context, studentID int64, text string) error {
	u, err := b.users.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	if u == nil || u.TelegramID == nil {
		return ErrNoChat
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(*u.TelegramID, text)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// notifyAdmin copies cashier actions to the admin chat, if one is configured.
func (b *Bot) notifyAdmin(text string) {
	if b.adminChat == 0 {
		return
	}
	b.send(tgbotapi.NewMessage(b.adminChat, text))
}
