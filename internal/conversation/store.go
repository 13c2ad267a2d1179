// Package conversation keeps the per-chat continuation: what the bot is
// waiting for after asking the user a question. State lives in process
// memory and is lost on restart.
package conversation

import (
	"sync"

	"github.com/hray3182/Recuerdame/internal/models"
)

type Kind int

const (
	Idle Kind = iota
	AwaitingDateForNew
	AwaitingDateForReschedule
)

func (k Kind) String() string {
	switch k {
	case AwaitingDateForNew:
		return "awaiting_date_for_new"
	case AwaitingDateForReschedule:
		return "awaiting_date_for_reschedule"
	default:
		return "idle"
	}
}

// Continuation is the pending half of a multi-turn request.
type Continuation struct {
	Kind Kind

	// AwaitingDateForNew
	Task     string
	Amount   *int64
	Category models.Category

	// AwaitingDateForReschedule
	ReminderID int64
}

// NewReminder starts waiting for the date of a reminder not yet stored.
func NewReminder(task string, amount *int64, category models.Category) Continuation {
	return Continuation{Kind: AwaitingDateForNew, Task: task, Amount: amount, Category: category}
}

// Reschedule starts waiting for the new date of an existing reminder.
func Reschedule(reminderID int64) Continuation {
	return Continuation{Kind: AwaitingDateForReschedule, ReminderID: reminderID}
}

// Store holds at most one continuation per chat.
type Store struct {
	mu      sync.Mutex
	pending map[int64]Continuation
}

func NewStore() *Store {
	return &Store{pending: make(map[int64]Continuation)}
}

// Set replaces whatever the chat was waiting for. Setting Idle clears it.
func (s *Store) Set(chatID int64, c Continuation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Kind == Idle {
		delete(s.pending, chatID)
		return
	}
	s.pending[chatID] = c
}

// Pop removes and returns the chat's continuation.
func (s *Store) Pop(chatID int64) (Continuation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.pending[chatID]
	if ok {
		delete(s.pending, chatID)
	}
	return c, ok
}

// Peek returns the chat's continuation without consuming it.
func (s *Store) Peek(chatID int64) (Continuation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.pending[chatID]
	return c, ok
}

func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, chatID)
}
