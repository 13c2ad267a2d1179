package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hray3182/Recuerdame/internal/models"
	"github.com/hray3182/Recuerdame/internal/repository"
)

// Store is the part of the reminder store the delivery loop needs.
type Store interface {
	ListAllPending(ctx context.Context) ([]*models.Reminder, error)
	RecordDelivery(ctx context.Context, reminderID int64, at time.Time) error
	AutoClose(ctx context.Context, reminderID int64, at time.Time) error
}

// Notifier delivers one reminder to its chat.
type Notifier interface {
	SendReminder(ctx context.Context, chatID, reminderID int64, task string) error
}

type Options struct {
	CheckInterval time.Duration
	// RetryCooldown is the minimum time between two notifications of the
	// same reminder.
	RetryCooldown time.Duration
	// MaxRetries is the number of notifications after which a reminder is
	// closed without further messages.
	MaxRetries int
	Now        func() time.Time
}

type Scheduler struct {
	store    Store
	notifier Notifier
	opts     Options
	log      logrus.FieldLogger
	notifyCh chan struct{}
}

func New(store Store, notifier Notifier, opts Options, log logrus.FieldLogger) *Scheduler {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		store:    store,
		notifier: notifier,
		opts:     opts,
		log:      log,
		notifyCh: make(chan struct{}, 1),
	}
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.log.WithField("interval", s.opts.CheckInterval.String()).Info("scheduler started")
	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()

	// Wait a bit for migrations to complete before first check
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}

	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		case <-s.notifyCh:
			s.log.Debug("scheduler triggered by notification")
			s.Tick(ctx)
		}
	}
}

// TickResult counts what one pass did.
type TickResult struct {
	Sent   int
	Failed int
	Closed int
}

// Tick processes every due pending reminder once. A failure on one reminder
// is logged and does not stop the others.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	var res TickResult
	log := s.log.WithField("tick", uuid.NewString())

	reminders, err := s.store.ListAllPending(ctx)
	if err != nil {
		log.WithError(err).Error("failed to list pending reminders")
		return res
	}

	now := s.opts.Now().UTC()
	for _, r := range reminders {
		rlog := log.WithFields(logrus.Fields{"reminder_id": r.ReminderID, "chat_id": r.ChatID})

		switch s.decide(r, now) {
		case actionSkip:
			continue

		case actionClose:
			if err := s.store.AutoClose(ctx, r.ReminderID, now); err != nil && !errors.Is(err, repository.ErrNotFound) {
				rlog.WithError(err).Error("failed to auto-close reminder")
				continue
			}
			res.Closed++
			rlog.WithField("retry_count", r.RetryCount).Info("reminder closed after max retries")

		case actionSend:
			if err := s.notifier.SendReminder(ctx, r.ChatID, r.ReminderID, r.Task); err != nil {
				res.Failed++
				rlog.WithError(err).Warn("failed to deliver reminder")
				continue
			}
			res.Sent++
			if err := s.store.RecordDelivery(ctx, r.ReminderID, now); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					rlog.Debug("reminder changed while it was being delivered")
					continue
				}
				rlog.WithError(err).Error("failed to record delivery")
				continue
			}
			rlog.WithField("retry_count", r.RetryCount+1).Info("sent reminder")
		}
	}

	if res != (TickResult{}) {
		log.WithFields(logrus.Fields{"sent": res.Sent, "failed": res.Failed, "closed": res.Closed}).Debug("tick finished")
	}
	return res
}

type action int

const (
	actionSkip action = iota
	actionClose
	actionSend
)

func (s *Scheduler) decide(r *models.Reminder, now time.Time) action {
	if r.DueAt.After(now) {
		return actionSkip
	}
	if r.RetryCount >= s.opts.MaxRetries {
		return actionClose
	}
	if r.LastSentAt != nil && now.Sub(*r.LastSentAt) < s.opts.RetryCooldown {
		return actionSkip
	}
	return actionSend
}
