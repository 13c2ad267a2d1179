package models

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusDeleted Status = "deleted"
)

type Category string

const (
	CategoryGeneral Category = "general"
	CategoryPago    Category = "pago"
)

type Reminder struct {
	ReminderID  int64      `json:"id"`
	ChatID      int64      `json:"chat_id"`
	Task        string     `json:"task"`
	DueAt       time.Time  `json:"due_at"` // stored in UTC
	Status      Status     `json:"status"`
	Amount      *int64     `json:"amount"` // smallest currency unit (COP)
	Category    Category   `json:"category"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	RetryCount  int        `json:"retry_count"`
	LastSentAt  *time.Time `json:"last_sent_at"`
}

// IsPayment reports whether the reminder counts towards payment sums.
// Amount and category are independent signals; either one is enough.
func (r *Reminder) IsPayment() bool {
	return r.Amount != nil || r.Category == CategoryPago
}

func (r *Reminder) IsDone() bool {
	return r.Status == StatusDone
}
