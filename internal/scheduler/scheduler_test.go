package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hray3182/Recuerdame/internal/database"
	"github.com/hray3182/Recuerdame/internal/models"
	"github.com/hray3182/Recuerdame/internal/repository"
)

type sent struct {
	chatID, reminderID int64
	task               string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sent
	failOn map[int64]bool
}

func (f *fakeNotifier) SendReminder(_ context.Context, chatID, reminderID int64, task string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[reminderID] {
		return errors.New("telegram: connection reset")
	}
	f.sent = append(f.sent, sent{chatID, reminderID, task})
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newStore(t *testing.T) *repository.SQLiteReminderRepository {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, "sqlite::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.MigrateSQLite(ctx, db, quietLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewSQLiteReminderRepository(db)
}

func create(t *testing.T, store *repository.SQLiteReminderRepository, chatID int64, task string, due time.Time) int64 {
	t.Helper()
	r := &models.Reminder{ChatID: chatID, Task: task, DueAt: due, Category: models.CategoryGeneral}
	if err := store.Create(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}
	return r.ReminderID
}

func get(t *testing.T, store *repository.SQLiteReminderRepository, chatID, id int64) *models.Reminder {
	t.Helper()
	rows, err := store.List(context.Background(), chatID, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range rows {
		if r.ReminderID == id {
			return r
		}
	}
	t.Fatalf("reminder %d not listed", id)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newScheduler(store Store, n Notifier, c *clock, maxRetries int) *Scheduler {
	return New(store, n, Options{
		CheckInterval: time.Second,
		RetryCooldown: 60 * time.Minute,
		MaxRetries:    maxRetries,
		Now:           c.now,
	}, quietLogger())
}

func TestTickDeliversDueRemindersOnly(t *testing.T) {
	store := newStore(t)
	c := &clock{t: time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)}
	due := create(t, store, 1, "botar basura", c.t.Add(-time.Minute))
	future := create(t, store, 1, "llamar a mamá", c.t.Add(time.Hour))

	n := &fakeNotifier{}
	res := newScheduler(store, n, c, 24).Tick(context.Background())

	if res.Sent != 1 || len(n.sent) != 1 || n.sent[0].reminderID != due || n.sent[0].task != "botar basura" {
		t.Fatalf("res = %+v, sent = %+v", res, n.sent)
	}
	r := get(t, store, 1, due)
	if r.RetryCount != 1 || r.LastSentAt == nil || !r.LastSentAt.Equal(c.t) {
		t.Errorf("after delivery: retry=%d last_sent=%v", r.RetryCount, r.LastSentAt)
	}
	if r := get(t, store, 1, future); r.RetryCount != 0 || r.LastSentAt != nil {
		t.Errorf("future reminder touched: %+v", r)
	}
}

func TestTickRespectsCooldown(t *testing.T) {
	store := newStore(t)
	c := &clock{t: time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)}
	id := create(t, store, 1, "pagar luz", c.t)

	n := &fakeNotifier{}
	s := newScheduler(store, n, c, 24)
	s.Tick(context.Background())

	c.advance(59 * time.Minute)
	s.Tick(context.Background())
	if len(n.sent) != 1 {
		t.Fatalf("sent %d times inside cooldown", len(n.sent))
	}

	c.advance(time.Minute)
	s.Tick(context.Background())
	if len(n.sent) != 2 {
		t.Fatalf("sent %d times after cooldown, want 2", len(n.sent))
	}
	if r := get(t, store, 1, id); r.RetryCount != 2 {
		t.Errorf("retry_count = %d, want 2", r.RetryCount)
	}
}

func TestTickFailedDeliveryKeepsBookkeeping(t *testing.T) {
	store := newStore(t)
	c := &clock{t: time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)}
	id := create(t, store, 1, "pagar agua", c.t)
	other := create(t, store, 2, "regar plantas", c.t)

	n := &fakeNotifier{}
	s := newScheduler(store, n, c, 24)
	s.Tick(context.Background())
	firstSend := c.t

	c.advance(61 * time.Minute)
	n.failOn = map[int64]bool{id: true}
	res := s.Tick(context.Background())

	if res.Failed != 1 || res.Sent != 1 {
		t.Fatalf("res = %+v", res)
	}
	r := get(t, store, 1, id)
	if r.RetryCount != 1 || r.LastSentAt == nil || !r.LastSentAt.Equal(firstSend) {
		t.Errorf("failed send changed bookkeeping: retry=%d last_sent=%v", r.RetryCount, r.LastSentAt)
	}
	if r := get(t, store, 2, other); r.RetryCount != 2 {
		t.Errorf("other reminder retry_count = %d, want 2", r.RetryCount)
	}

	// eligible again on the very next tick
	n.failOn = nil
	c.advance(time.Second)
	s.Tick(context.Background())
	if r := get(t, store, 1, id); r.RetryCount != 2 {
		t.Errorf("retry_count after recovery = %d, want 2", r.RetryCount)
	}
}

func TestTickAutoClosesExhaustedReminder(t *testing.T) {
	store := newStore(t)
	c := &clock{t: time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)}
	id := create(t, store, 1, "pagar arriendo", c.t)

	n := &fakeNotifier{}
	s := newScheduler(store, n, c, 2)
	for i := 0; i < 2; i++ {
		s.Tick(context.Background())
		c.advance(time.Hour)
	}
	if len(n.sent) != 2 {
		t.Fatalf("sent = %d, want 2", len(n.sent))
	}

	res := s.Tick(context.Background())
	if res.Closed != 1 || len(n.sent) != 2 {
		t.Fatalf("res = %+v, sent = %d", res, len(n.sent))
	}
	r := get(t, store, 1, id)
	if r.Status != models.StatusDone || r.CompletedAt == nil {
		t.Errorf("after exhaustion: %+v", r)
	}

	pending, err := store.ListAllPending(context.Background())
	if err != nil || len(pending) != 0 {
		t.Errorf("pending = %v, %v", pending, err)
	}
}

func TestTickZeroMaxRetriesClosesWithoutSending(t *testing.T) {
	store := newStore(t)
	c := &clock{t: time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)}
	create(t, store, 1, "algo", c.t)

	n := &fakeNotifier{}
	res := newScheduler(store, n, c, 0).Tick(context.Background())
	if res.Closed != 1 || len(n.sent) != 0 {
		t.Errorf("res = %+v, sent = %+v", res, n.sent)
	}
}

func TestRescheduleReopensForDelivery(t *testing.T) {
	store := newStore(t)
	c := &clock{t: time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)}
	id := create(t, store, 1, "botar basura", c.t)

	n := &fakeNotifier{}
	s := newScheduler(store, n, c, 24)
	s.Tick(context.Background())

	if _, err := store.Reschedule(context.Background(), 1, id, c.t.Add(10*time.Minute)); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	c.advance(10 * time.Minute)
	s.Tick(context.Background())

	if len(n.sent) != 2 {
		t.Fatalf("sent = %d, want 2 (cooldown must not apply after reschedule)", len(n.sent))
	}
	if r := get(t, store, 1, id); r.RetryCount != 1 {
		t.Errorf("retry_count = %d, want 1", r.RetryCount)
	}
}

type failingStore struct{ Store }

func (failingStore) ListAllPending(context.Context) ([]*models.Reminder, error) {
	return nil, errors.New("database is locked")
}

func TestTickStoreUnavailable(t *testing.T) {
	c := &clock{t: time.Now()}
	n := &fakeNotifier{}
	res := newScheduler(failingStore{}, n, c, 24).Tick(context.Background())
	if res != (TickResult{}) || len(n.sent) != 0 {
		t.Errorf("res = %+v, sent = %+v", res, n.sent)
	}
}

func TestNotifyDoesNotBlock(t *testing.T) {
	s := newScheduler(failingStore{}, &fakeNotifier{}, &clock{}, 1)
	for i := 0; i < 5; i++ {
		s.Notify()
	}
	if len(s.notifyCh) != 1 {
		t.Errorf("pending notifications = %d, want 1", len(s.notifyCh))
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newScheduler(failingStore{}, &fakeNotifier{}, &clock{}, 1)

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
