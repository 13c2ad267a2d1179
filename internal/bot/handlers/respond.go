package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hray3182/Recuerdame/internal/conversation"
	"github.com/hray3182/Recuerdame/internal/format"
	"github.com/hray3182/Recuerdame/internal/intent"
	"github.com/hray3182/Recuerdame/internal/models"
	"github.com/hray3182/Recuerdame/internal/repository"
)

// Respond interprets one text message from chatID and returns the answer.
// A pending continuation gets the first look at the text; otherwise the
// message is classified and acted upon.
func (h *Handlers) Respond(ctx context.Context, chatID int64, text string) Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Text: fallbackText}
	}

	if c, ok := h.conv.Pop(chatID); ok {
		if reply, handled := h.continueConversation(ctx, chatID, c, text); handled {
			return reply
		}
	}

	in := h.classifier.Classify(text)
	h.chatLog(chatID).WithField("intent", in.Kind.String()).Debug("classified message")
	return h.execute(ctx, chatID, in)
}

// continueConversation tries to complete c with text. A message that is
// itself a list, sum, delete or help request keeps the continuation and is
// answered normally (handled=false), even when it names a month. Otherwise
// text must be a date; if it is not, the continuation is put back and the
// date prompt is repeated.
func (h *Handlers) continueConversation(ctx context.Context, chatID int64, c conversation.Continuation, text string) (Reply, bool) {
	if passesThrough(h.classifier.Classify(text).Kind) {
		h.conv.Set(chatID, c)
		return Reply{}, false
	}

	due, ok := h.extractor.DateTime(text)
	if !ok {
		h.conv.Set(chatID, c)
		return Reply{Text: dateNotUnderstood}, true
	}

	switch c.Kind {
	case conversation.AwaitingDateForNew:
		return h.create(ctx, chatID, &models.Reminder{
			ChatID:   chatID,
			Task:     c.Task,
			DueAt:    due,
			Amount:   c.Amount,
			Category: c.Category,
		}), true
	case conversation.AwaitingDateForReschedule:
		return h.reschedule(ctx, chatID, c.ReminderID, due, false), true
	}
	return Reply{Text: dateNotUnderstood}, true
}

// passesThrough lists the intents that may interrupt a pending question
// without cancelling it.
func passesThrough(k intent.Kind) bool {
	switch k {
	case intent.DeleteByIDs, intent.ShowHelp, intent.ListPending, intent.ListAll, intent.ListPeriod, intent.SumPeriod:
		return true
	}
	return false
}

func (h *Handlers) execute(ctx context.Context, chatID int64, in intent.Intent) Reply {
	switch in.Kind {
	case intent.DeleteByIDs:
		return h.delete(ctx, chatID, in.IDs)
	case intent.ShowHelp:
		return Reply{Text: helpText}
	case intent.ListPending:
		return h.list(ctx, chatID, models.StatusPending, pendingTitle)
	case intent.ListAll:
		return h.list(ctx, chatID, "", allTitle)
	case intent.ListPeriod:
		rows, err := h.store.ListInRange(ctx, chatID, in.Period.Start, in.Period.End, "")
		if err != nil {
			return h.failure(chatID, err, "list period")
		}
		return Reply{Text: format.FormatList(rows, fmt.Sprintf("🗓️ Lista en %s:", in.Period.Label), h.extractor.Location())}
	case intent.SumPeriod:
		rows, err := h.store.ListInRange(ctx, chatID, in.Period.Start, in.Period.End, "")
		if err != nil {
			return h.failure(chatID, err, "sum period")
		}
		return Reply{Text: format.FormatPaySum(rows, in.Period.Label, h.extractor.Location())}
	case intent.ConfirmDone:
		return h.confirm(ctx, chatID)
	case intent.CreateReminder:
		if in.Due == nil {
			return h.askForDate(chatID, in)
		}
		return h.create(ctx, chatID, &models.Reminder{
			ChatID:   chatID,
			Task:     in.Task,
			DueAt:    *in.Due,
			Amount:   in.Amount,
			Category: in.Category,
		})
	default:
		return Reply{Text: fallbackText}
	}
}

func (h *Handlers) list(ctx context.Context, chatID int64, status models.Status, title string) Reply {
	rows, err := h.store.List(ctx, chatID, status, repository.DefaultListLimit)
	if err != nil {
		return h.failure(chatID, err, "list reminders")
	}
	return Reply{Text: format.FormatList(rows, title, h.extractor.Location())}
}

func (h *Handlers) delete(ctx context.Context, chatID int64, ids []int64) Reply {
	var deleted, notFound []int64
	var failed bool
	for _, id := range ids {
		_, err := h.store.SoftDelete(ctx, chatID, id)
		switch {
		case err == nil:
			deleted = append(deleted, id)
		case errors.Is(err, repository.ErrNotFound):
			notFound = append(notFound, id)
		default:
			h.chatLog(chatID).WithError(err).WithField("reminder_id", id).Error("failed to delete reminder")
			failed = true
		}
		if failed {
			break
		}
	}

	var lines []string
	if len(deleted) > 0 {
		lines = append(lines, "🗑️ Eliminados: "+format.IDs(deleted))
	}
	if len(notFound) > 0 {
		lines = append(lines, "⚠️ No encontrados: "+format.IDs(notFound))
	}
	if failed {
		lines = append(lines, genericFailure)
	}
	if len(lines) == 0 {
		return Reply{Text: "No pude borrar nada."}
	}
	return Reply{Text: strings.Join(lines, "\n")}
}

func (h *Handlers) confirm(ctx context.Context, chatID int64) Reply {
	done, err := h.store.MarkDone(ctx, chatID, nil)
	if errors.Is(err, repository.ErrNotFound) {
		return Reply{Text: noPendingToMark}
	}
	if err != nil {
		return h.failure(chatID, err, "mark done")
	}
	return Reply{Text: fmt.Sprintf("✅ Hecho: #%d — %s", done.ReminderID, format.Escape(done.Task))}
}

func (h *Handlers) askForDate(chatID int64, in intent.Intent) Reply {
	h.conv.Set(chatID, conversation.NewReminder(in.Task, in.Amount, in.Category))

	var sb strings.Builder
	sb.WriteString("Entendí esto:\n🧾 " + format.Escape(in.Task))
	if in.Amount != nil {
		sb.WriteString("\n💸 " + format.Money(*in.Amount))
	}
	sb.WriteString("\n\n" + askDateText)
	return Reply{Text: sb.String()}
}

func (h *Handlers) create(ctx context.Context, chatID int64, reminder *models.Reminder) Reply {
	if err := h.store.Create(ctx, reminder); err != nil {
		return h.failure(chatID, err, "create reminder")
	}
	h.chatLog(chatID).WithField("reminder_id", reminder.ReminderID).Info("reminder created")
	h.nudgeIfDue(reminder.DueAt)
	return Reply{Text: format.Created(reminder, h.extractor.Location())}
}

func (h *Handlers) failure(chatID int64, err error, op string) Reply {
	h.chatLog(chatID).WithError(err).Error("failed to " + op)
	return Reply{Text: genericFailure}
}
