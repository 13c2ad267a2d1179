package scheduler

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/Recuerdame/internal/format"
)

// TelegramNotifier sends reminders as Telegram messages with the
// done / reschedule / snooze buttons.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

func NewTelegramNotifier(api *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

func (n *TelegramNotifier) SendReminder(ctx context.Context, chatID, reminderID int64, task string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, format.Reminder(task))
	msg.ReplyMarkup = format.ReminderKeyboard(reminderID)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send reminder %d to chat %d: %w", reminderID, chatID, err)
	}
	return nil
}
