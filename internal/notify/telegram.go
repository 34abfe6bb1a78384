// Package notify — потребитель доменных событий, отправляющий уведомления
// о жизненном цикле заявок в служебный Telegram-канал лаборантов.
package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lab_booking/internal/event"
)

// TelegramNotifier реализует event.Handler. Сбой отправки логируется и не
// влияет на результат мутации.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID string
	logger *zap.Logger
}

func NewTelegramNotifier(b *bot.Bot, chatID string, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    b,
		chatID: chatID,
		logger: logger,
	}
}

// HandleEvent реализует event.Handler
func (n *TelegramNotifier) HandleEvent(ctx context.Context, env event.Envelope) error {
	text := formatEvent(env.Event)
	if text == "" {
		return nil
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	n.logger.Debug("Notification sent",
		zap.String("event", env.Event.Kind()),
	)
	return nil
}

func formatEvent(e event.Event) string {
	switch ev := e.(type) {
	case event.BookingCreated:
		if ev.IsException {
			return fmt.Sprintf("⚡ Внеплановое бронирование #%d: лаборатория %d, %s %s",
				ev.BookingID, ev.LabID, ev.Date.Format("02.01.2006"), formatWindow(ev.StartMinutes, ev.EndMinutes))
		}
		return fmt.Sprintf("📝 Новая заявка #%d: лаборатория %d, %s %s",
			ev.BookingID, ev.LabID, ev.Date.Format("02.01.2006"), formatWindow(ev.StartMinutes, ev.EndMinutes))
	case event.BookingApproved:
		return fmt.Sprintf("✅ Заявка #%d одобрена", ev.BookingID)
	case event.BookingRejected:
		reason := ev.Reason
		if reason == "" {
			reason = "не указана"
		}
		return fmt.Sprintf("❌ Заявка #%d отклонена. Причина: %s", ev.BookingID, reason)
	case event.BookingCancelled:
		return fmt.Sprintf("🚫 Заявка #%d отменена заявителем", ev.BookingID)
	case event.BookingEdited:
		return fmt.Sprintf("✏️ Заявка #%d изменена", ev.BookingID)
	}
	// комментарии в канал не транслируются
	return ""
}

func formatWindow(start, end int) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", start/60, start%60, end/60, end%60)
}
