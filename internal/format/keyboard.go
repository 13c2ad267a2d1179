package format

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Action is one of the inline buttons under a delivered reminder.
type Action string

const (
	ActionDone       Action = "done"
	ActionReschedule Action = "resched"
	ActionSnooze     Action = "snooze1h"
)

// ReminderKeyboard builds the buttons attached to a notification.
func ReminderKeyboard(reminderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Ya lo hice", callbackData(ActionDone, reminderID)),
			tgbotapi.NewInlineKeyboardButtonData("🔁 Recuérdame otra vez", callbackData(ActionReschedule, reminderID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🕐 En 1 hora", callbackData(ActionSnooze, reminderID)),
		),
	)
}

func callbackData(a Action, reminderID int64) string {
	return fmt.Sprintf("%s:%d", a, reminderID)
}

// ParseAction decodes callback data such as "done:12".
func ParseAction(data string) (Action, int64, error) {
	name, rawID, ok := strings.Cut(data, ":")
	if !ok {
		return "", 0, fmt.Errorf("callback data %q: missing id", data)
	}
	a := Action(name)
	switch a {
	case ActionDone, ActionReschedule, ActionSnooze:
	default:
		return "", 0, fmt.Errorf("callback data %q: unknown action", data)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("callback data %q: %w", data, err)
	}
	return a, id, nil
}
