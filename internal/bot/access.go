package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/tcms/internal/domain/access"
	"github.com/Spok95/tcms/internal/domain/users"
	"github.com/Spok95/tcms/internal/report"
)

func (b *Bot) showMyClasses(ctx context.Context, chatID int64, u *users.User) {
	list, err := b.access.ForStudent(ctx, u.ID)
	if err != nil {
		b.log.Error("resolve access failed", "student_id", u.ID, "err", err)
		b.reply(chatID, "Could not load your classes, please try again later.")
		return
	}
	b.reply(chatID, formatClasses(list))
}

// formatClasses renders one block per class card.
func formatClasses(list []access.ClassAccess) string {
	if len(list) == 0 {
		return "You are not enrolled in any class yet."
	}
	var sb strings.Builder
	for i, a := range list {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%s %s (#%d)\n%s", badge(a.CanAccess), a.ClassName, a.EnrollmentID, a.Message)
		if a.NextPaymentDate != nil {
			fmt.Fprintf(&sb, "\nNext payment: %s", a.NextPaymentDate.Format(access.DateLayout))
		}
		if a.PaymentTrackingEnabled && a.GracePeriodEndDate != nil {
			fmt.Fprintf(&sb, "\nGrace period until: %s", a.GracePeriodEndDate.Format(access.DateLayout))
		}
	}
	return sb.String()
}

func (b *Bot) sendAccessReport(ctx context.Context, chatID int64) {
	list, err := b.access.All(ctx)
	if err != nil {
		b.log.Error("resolve access failed", "err", err)
		b.reply(chatID, "Could not build the report.")
		return
	}
	day := b.access.Today()
	data, err := report.AccessWorkbook(list, day)
	if err != nil {
		b.log.Error("build report failed", "err", err)
		b.reply(chatID, "Could not build the report.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  report.AccessFileName(day),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("Class access on %s", day.Format(access.DateLayout))
	b.send(doc)
}
