package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/Recuerdame/internal/conversation"
	"github.com/hray3182/Recuerdame/internal/format"
	"github.com/hray3182/Recuerdame/internal/repository"
)

const snoozeDelay = time.Hour

// HandleAction runs one of the buttons attached to a delivered reminder.
func (h *Handlers) HandleAction(ctx context.Context, chatID int64, action format.Action, reminderID int64) Reply {
	switch action {
	case format.ActionDone:
		done, err := h.store.MarkDone(ctx, chatID, &reminderID)
		if errors.Is(err, repository.ErrNotFound) {
			return Reply{Text: alreadyResolved, Edit: true}
		}
		if err != nil {
			return h.failure(chatID, err, "mark done")
		}
		return Reply{Text: fmt.Sprintf("✅ Listo, marcado como hecho: #%d — %s", done.ReminderID, format.Escape(done.Task)), Edit: true}

	case format.ActionReschedule:
		h.conv.Set(chatID, conversation.Reschedule(reminderID))
		return Reply{Text: reschedulePrompt}

	case format.ActionSnooze:
		return h.reschedule(ctx, chatID, reminderID, h.extractor.Now().Add(snoozeDelay), true)
	}
	return Reply{Text: fallbackText}
}

func (h *Handlers) reschedule(ctx context.Context, chatID, reminderID int64, due time.Time, snoozed bool) Reply {
	due, err := h.store.Reschedule(ctx, chatID, reminderID, due)
	if errors.Is(err, repository.ErrNotFound) {
		return Reply{Text: reminderNotFound}
	}
	if err != nil {
		return h.failure(chatID, err, "reschedule reminder")
	}

	h.chatLog(chatID).WithField("reminder_id", reminderID).Info("reminder rescheduled")
	h.nudgeIfDue(due)

	when := format.DateTime(due, h.extractor.Location())
	if snoozed {
		return Reply{Text: fmt.Sprintf("🕐 Listo. Reprogramado #%d para dentro de 1 hora.\n⏰ %s", reminderID, when)}
	}
	return Reply{Text: fmt.Sprintf("🔁 Listo. Reprogramado #%d\n⏰ %s", reminderID, when)}
}
