package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/hray3182/Recuerdame/internal/conversation"
	"github.com/hray3182/Recuerdame/internal/extract"
	"github.com/hray3182/Recuerdame/internal/format"
	"github.com/hray3182/Recuerdame/internal/intent"
	"github.com/hray3182/Recuerdame/internal/models"
	"github.com/hray3182/Recuerdame/internal/period"
)

// ReminderStore is the reminder persistence the handlers act on.
type ReminderStore interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	Reschedule(ctx context.Context, chatID, reminderID int64, due time.Time) (time.Time, error)
	List(ctx context.Context, chatID int64, status models.Status, limit int) ([]*models.Reminder, error)
	ListInRange(ctx context.Context, chatID int64, start, end time.Time, category models.Category) ([]*models.Reminder, error)
	MarkDone(ctx context.Context, chatID int64, reminderID *int64) (*models.Reminder, error)
	SoftDelete(ctx context.Context, chatID, reminderID int64) (*models.Reminder, error)
}

// Sender is the subset of *tgbotapi.BotAPI used to talk back to chats.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Nudger wakes the delivery loop when a reminder is already due.
type Nudger interface {
	Notify()
}

// Reply is what the bot answers to one input. Edit asks the transport to
// replace the message that carried the button instead of sending a new one.
type Reply struct {
	Text string
	Edit bool
}

type Handlers struct {
	api        Sender
	store      ReminderStore
	extractor  *extract.Extractor
	classifier *intent.Classifier
	periods    *period.Resolver
	conv       *conversation.Store
	nudger     Nudger
	log        logrus.FieldLogger
}

func New(api Sender, store ReminderStore, extractor *extract.Extractor, conv *conversation.Store, nudger Nudger, log logrus.FieldLogger) *Handlers {
	periods := period.NewResolver(extractor.Location(), extractor.Now)
	return &Handlers{
		api:        api,
		store:      store,
		extractor:  extractor,
		classifier: intent.NewClassifier(extractor, periods),
		periods:    periods,
		conv:       conv,
		nudger:     nudger,
		log:        log,
	}
}

func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Text == "" {
		return
	}
	reply := h.Respond(ctx, msg.Chat.ID, msg.Text)
	h.sendMessage(msg.Chat.ID, reply.Text)
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	reply := h.Command(ctx, msg.Chat.ID, msg.Command())
	h.sendMessage(msg.Chat.ID, reply.Text)
}

func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Answer callback to remove loading state
	if _, err := h.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.log.WithError(err).Warn("failed to answer callback")
	}
	if callback.Message == nil {
		return
	}

	action, reminderID, err := format.ParseAction(callback.Data)
	if err != nil {
		h.log.WithError(err).Warn("ignoring callback")
		return
	}

	chatID := callback.Message.Chat.ID
	reply := h.HandleAction(ctx, chatID, action, reminderID)
	if reply.Edit {
		h.editMessageText(chatID, callback.Message.MessageID, reply.Text)
		return
	}
	h.sendMessage(chatID, reply.Text)
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	if _, err := h.api.Send(msg); err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}

func (h *Handlers) editMessageText(chatID int64, messageID int, text string) {
	parsed := format.ParseMarkdown(text)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, parsed.Text)
	edit.Entities = parsed.Entities
	if _, err := h.api.Send(edit); err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("failed to edit message")
	}
}

func (h *Handlers) nudgeIfDue(due time.Time) {
	if h.nudger != nil && !due.After(h.extractor.Now()) {
		h.nudger.Notify()
	}
}

func (h *Handlers) chatLog(chatID int64) logrus.FieldLogger {
	return h.log.WithField("chat_id", chatID)
}
