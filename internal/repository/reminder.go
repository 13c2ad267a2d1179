package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/Recuerdame/internal/database"
	"github.com/hray3182/Recuerdame/internal/models"
	"github.com/jackc/pgx/v5"
)

const reminderColumns = `reminder_id, chat_id, task, due_at, status, amount, category, created_at, completed_at, retry_count, last_sent_at`

// ReminderRepository is the Postgres-backed reminder store.
type ReminderRepository struct {
	db  *database.DB
	now func() time.Time
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db, now: time.Now}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder.Category == "" {
		reminder.Category = models.CategoryGeneral
	}
	reminder.Status = models.StatusPending
	reminder.DueAt = reminder.DueAt.UTC().Truncate(time.Second)

	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (chat_id, task, due_at, status, amount, category, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING reminder_id, created_at`,
		reminder.ChatID, reminder.Task, reminder.DueAt, reminder.Status, reminder.Amount,
		reminder.Category, r.now().UTC().Truncate(time.Second),
	).Scan(&reminder.ReminderID, &reminder.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	reminder.CreatedAt = reminder.CreatedAt.UTC()
	return nil
}

// Reschedule moves a non-deleted reminder to due and reopens it.
func (r *ReminderRepository) Reschedule(ctx context.Context, chatID, reminderID int64, due time.Time) (time.Time, error) {
	var newDue time.Time
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE reminders
		 SET due_at = $1, status = 'pending', retry_count = 0, last_sent_at = NULL, completed_at = NULL
		 WHERE chat_id = $2 AND reminder_id = $3 AND status <> 'deleted'
		 RETURNING due_at`,
		due.UTC().Truncate(time.Second), chatID, reminderID,
	).Scan(&newDue)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reschedule reminder %d: %w", reminderID, err)
	}
	return newDue.UTC(), nil
}

// List returns the chat's reminders ordered by due time. An empty status
// means every non-deleted reminder.
func (r *ReminderRepository) List(ctx context.Context, chatID int64, status models.Status, limit int) ([]*models.Reminder, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.Pool.Query(ctx,
			`SELECT `+reminderColumns+` FROM reminders
			 WHERE chat_id = $1 AND status = $2 ORDER BY due_at ASC, reminder_id ASC LIMIT $3`,
			chatID, status, limit,
		)
	} else {
		rows, err = r.db.Pool.Query(ctx,
			`SELECT `+reminderColumns+` FROM reminders
			 WHERE chat_id = $1 AND status <> 'deleted' ORDER BY due_at ASC, reminder_id ASC LIMIT $2`,
			chatID, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// ListInRange returns non-deleted reminders due within [start, end].
// An empty category matches both categories.
func (r *ReminderRepository) ListInRange(ctx context.Context, chatID int64, start, end time.Time, category models.Category) ([]*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
		 WHERE chat_id = $1 AND status <> 'deleted' AND due_at >= $2 AND due_at <= $3`
	args := []any{chatID, start.UTC(), end.UTC()}
	if category != "" {
		query += ` AND category = $4`
		args = append(args, category)
	}
	query += ` ORDER BY due_at ASC, reminder_id ASC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders in range: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// MarkDone completes the pending reminder reminderID, or the earliest-due
// pending reminder of the chat when reminderID is nil.
func (r *ReminderRepository) MarkDone(ctx context.Context, chatID int64, reminderID *int64) (*models.Reminder, error) {
	var done *models.Reminder
	err := pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		var target int64
		var err error
		if reminderID == nil {
			err = tx.QueryRow(ctx,
				`SELECT reminder_id FROM reminders
				 WHERE chat_id = $1 AND status = 'pending'
				 ORDER BY due_at ASC, reminder_id ASC LIMIT 1 FOR UPDATE`,
				chatID,
			).Scan(&target)
		} else {
			err = tx.QueryRow(ctx,
				`SELECT reminder_id FROM reminders
				 WHERE chat_id = $1 AND reminder_id = $2 AND status = 'pending' FOR UPDATE`,
				chatID, *reminderID,
			).Scan(&target)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx,
			`UPDATE reminders SET status = 'done', completed_at = $1
			 WHERE reminder_id = $2
			 RETURNING `+reminderColumns,
			r.now().UTC(), target,
		)
		done, err = scanReminder(row)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark reminder done: %w", err)
	}
	return done, nil
}

// SoftDelete flags a non-deleted reminder as deleted. Rows are never removed.
func (r *ReminderRepository) SoftDelete(ctx context.Context, chatID, reminderID int64) (*models.Reminder, error) {
	row := r.db.Pool.QueryRow(ctx,
		`UPDATE reminders SET status = 'deleted'
		 WHERE chat_id = $1 AND reminder_id = $2 AND status <> 'deleted'
		 RETURNING `+reminderColumns,
		chatID, reminderID,
	)
	deleted, err := scanReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete reminder %d: %w", reminderID, err)
	}
	return deleted, nil
}

// ListAllPending returns every pending reminder across chats.
func (r *ReminderRepository) ListAllPending(ctx context.Context) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE status = 'pending' ORDER BY due_at ASC, reminder_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// RecordDelivery counts one successful notification. A reminder that was
// closed or moved to the future while the message was in flight is left
// alone and ErrNotFound is returned.
func (r *ReminderRepository) RecordDelivery(ctx context.Context, reminderID int64, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET retry_count = retry_count + 1, last_sent_at = $1
		 WHERE reminder_id = $2 AND status = 'pending' AND due_at <= $1`,
		at.UTC(), reminderID,
	)
	if err != nil {
		return fmt.Errorf("record delivery of reminder %d: %w", reminderID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AutoClose marks an exhausted pending reminder as done.
func (r *ReminderRepository) AutoClose(ctx context.Context, reminderID int64, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET status = 'done', completed_at = $1
		 WHERE reminder_id = $2 AND status = 'pending'`,
		at.UTC(), reminderID,
	)
	if err != nil {
		return fmt.Errorf("auto-close reminder %d: %w", reminderID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	err := row.Scan(&reminder.ReminderID, &reminder.ChatID, &reminder.Task, &reminder.DueAt,
		&reminder.Status, &reminder.Amount, &reminder.Category, &reminder.CreatedAt,
		&reminder.CompletedAt, &reminder.RetryCount, &reminder.LastSentAt)
	if err != nil {
		return nil, err
	}
	normalizeUTC(reminder)
	return reminder, nil
}

func scanReminders(rows pgx.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func normalizeUTC(reminder *models.Reminder) {
	reminder.DueAt = reminder.DueAt.UTC()
	reminder.CreatedAt = reminder.CreatedAt.UTC()
	if reminder.CompletedAt != nil {
		t := reminder.CompletedAt.UTC()
		reminder.CompletedAt = &t
	}
	if reminder.LastSentAt != nil {
		t := reminder.LastSentAt.UTC()
		reminder.LastSentAt = &t
	}
}
