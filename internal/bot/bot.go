package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/hray3182/Recuerdame/internal/bot/handlers"
)

// Updater is the update source; *tgbotapi.BotAPI implements it.
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api      Updater
	handlers *handlers.Handlers
	log      logrus.FieldLogger

	mu     sync.Mutex
	queues map[int64]*chatQueue
	wg     sync.WaitGroup
}

// chatQueue holds the updates of one chat waiting for its worker.
type chatQueue struct {
	pending []tgbotapi.Update
}

func New(api Updater, h *handlers.Handlers, log logrus.FieldLogger) *Bot {
	return &Bot{
		api:      api,
		handlers: h,
		log:      log,
		queues:   make(map[int64]*chatQueue),
	}
}

// Start receives updates until ctx is cancelled. Updates of different chats
// are handled concurrently; updates of one chat are handled in order.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			chatID, ok := chatOf(update)
			if !ok {
				continue
			}
			b.dispatch(ctx, chatID, update)
		}
	}
}

// dispatch queues update for its chat and starts the chat's worker if it
// is not running.
func (b *Bot) dispatch(ctx context.Context, chatID int64, update tgbotapi.Update) {
	b.mu.Lock()
	q, running := b.queues[chatID]
	if !running {
		q = &chatQueue{}
		b.queues[chatID] = q
	}
	q.pending = append(q.pending, update)
	b.mu.Unlock()

	if !running {
		b.wg.Add(1)
		go b.drain(ctx, chatID, q)
	}
}

// drain handles the chat's updates one by one and exits when the queue is
// empty.
func (b *Bot) drain(ctx context.Context, chatID int64, q *chatQueue) {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		if len(q.pending) == 0 {
			delete(b.queues, chatID)
			b.mu.Unlock()
			return
		}
		update := q.pending[0]
		q.pending = q.pending[1:]
		b.mu.Unlock()

		b.handleUpdate(ctx, update)
	}
}

func chatOf(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithField("panic", r).Error("update handler panicked")
		}
	}()

	if update.CallbackQuery != nil {
		b.handlers.HandleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	b.handlers.HandleMessage(ctx, update.Message)
}
