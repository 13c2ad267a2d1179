package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/Recuerdame/internal/models"
)

// timeLayout is fixed-width UTC so that range queries are plain string comparisons.
const timeLayout = "2006-01-02T15:04:05Z"

// SQLiteReminderRepository is the embedded single-file reminder store.
type SQLiteReminderRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteReminderRepository(db *sql.DB) *SQLiteReminderRepository {
	return &SQLiteReminderRepository{db: db, now: time.Now}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func (r *SQLiteReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder.Category == "" {
		reminder.Category = models.CategoryGeneral
	}
	reminder.Status = models.StatusPending
	reminder.DueAt = reminder.DueAt.UTC().Truncate(time.Second)
	reminder.CreatedAt = r.now().UTC().Truncate(time.Second)

	var amount sql.NullInt64
	if reminder.Amount != nil {
		amount = sql.NullInt64{Int64: *reminder.Amount, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (chat_id, task, due_at, status, amount, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reminder.ChatID, reminder.Task, formatTime(reminder.DueAt), string(reminder.Status), amount,
		string(reminder.Category), formatTime(reminder.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert reminder: last insert id: %w", err)
	}
	reminder.ReminderID = id
	return nil
}

func (r *SQLiteReminderRepository) Reschedule(ctx context.Context, chatID, reminderID int64, due time.Time) (time.Time, error) {
	due = due.UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx,
		`UPDATE reminders
		 SET due_at = ?, status = 'pending', retry_count = 0, last_sent_at = NULL, completed_at = NULL
		 WHERE chat_id = ? AND reminder_id = ? AND status <> 'deleted'`,
		formatTime(due), chatID, reminderID,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("reschedule reminder %d: %w", reminderID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return time.Time{}, ErrNotFound
	}
	return due, nil
}

func (r *SQLiteReminderRepository) List(ctx context.Context, chatID int64, status models.Status, limit int) ([]*models.Reminder, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+reminderColumns+` FROM reminders
			 WHERE chat_id = ? AND status = ? ORDER BY due_at ASC, reminder_id ASC LIMIT ?`,
			chatID, string(status), limit,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+reminderColumns+` FROM reminders
			 WHERE chat_id = ? AND status <> 'deleted' ORDER BY due_at ASC, reminder_id ASC LIMIT ?`,
			chatID, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	return scanSQLiteReminders(rows)
}

func (r *SQLiteReminderRepository) ListInRange(ctx context.Context, chatID int64, start, end time.Time, category models.Category) ([]*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
		 WHERE chat_id = ? AND status <> 'deleted' AND due_at >= ? AND due_at <= ?`
	args := []any{chatID, formatTime(start), formatTime(end)}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY due_at ASC, reminder_id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders in range: %w", err)
	}
	defer rows.Close()

	return scanSQLiteReminders(rows)
}

func (r *SQLiteReminderRepository) MarkDone(ctx context.Context, chatID int64, reminderID *int64) (*models.Reminder, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mark reminder done: begin: %w", err)
	}
	defer tx.Rollback()

	var target int64
	if reminderID == nil {
		err = tx.QueryRowContext(ctx,
			`SELECT reminder_id FROM reminders
			 WHERE chat_id = ? AND status = 'pending'
			 ORDER BY due_at ASC, reminder_id ASC LIMIT 1`,
			chatID,
		).Scan(&target)
	} else {
		err = tx.QueryRowContext(ctx,
			`SELECT reminder_id FROM reminders
			 WHERE chat_id = ? AND reminder_id = ? AND status = 'pending'`,
			chatID, *reminderID,
		).Scan(&target)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark reminder done: select: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reminders SET status = 'done', completed_at = ? WHERE reminder_id = ?`,
		formatTime(r.now()), target,
	); err != nil {
		return nil, fmt.Errorf("mark reminder done: update: %w", err)
	}

	done, err := scanSQLiteReminder(tx.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE reminder_id = ?`, target))
	if err != nil {
		return nil, fmt.Errorf("mark reminder done: reload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("mark reminder done: commit: %w", err)
	}
	return done, nil
}

func (r *SQLiteReminderRepository) SoftDelete(ctx context.Context, chatID, reminderID int64) (*models.Reminder, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("delete reminder: begin: %w", err)
	}
	defer tx.Rollback()

	reminder, err := scanSQLiteReminder(tx.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE chat_id = ? AND reminder_id = ? AND status <> 'deleted'`,
		chatID, reminderID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete reminder %d: %w", reminderID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reminders SET status = 'deleted' WHERE reminder_id = ?`, reminderID,
	); err != nil {
		return nil, fmt.Errorf("delete reminder %d: %w", reminderID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("delete reminder %d: commit: %w", reminderID, err)
	}

	reminder.Status = models.StatusDeleted
	return reminder, nil
}

func (r *SQLiteReminderRepository) ListAllPending(ctx context.Context) ([]*models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE status = 'pending' ORDER BY due_at ASC, reminder_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	defer rows.Close()

	return scanSQLiteReminders(rows)
}

func (r *SQLiteReminderRepository) RecordDelivery(ctx context.Context, reminderID int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET retry_count = retry_count + 1, last_sent_at = ?
		 WHERE reminder_id = ? AND status = 'pending' AND due_at <= ?`,
		formatTime(at), reminderID, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("record delivery of reminder %d: %w", reminderID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteReminderRepository) AutoClose(ctx context.Context, reminderID int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET status = 'done', completed_at = ?
		 WHERE reminder_id = ? AND status = 'pending'`,
		formatTime(at), reminderID,
	)
	if err != nil {
		return fmt.Errorf("auto-close reminder %d: %w", reminderID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReminder(row rowScanner) (*models.Reminder, error) {
	var (
		reminder              models.Reminder
		status, category      string
		dueAt, createdAt      string
		amount                sql.NullInt64
		completedAt, lastSent sql.NullString
	)
	if err := row.Scan(&reminder.ReminderID, &reminder.ChatID, &reminder.Task, &dueAt,
		&status, &amount, &category, &createdAt, &completedAt, &reminder.RetryCount, &lastSent); err != nil {
		return nil, err
	}

	reminder.Status = models.Status(status)
	reminder.Category = models.Category(category)
	if amount.Valid {
		v := amount.Int64
		reminder.Amount = &v
	}

	var err error
	if reminder.DueAt, err = time.Parse(timeLayout, dueAt); err != nil {
		return nil, fmt.Errorf("parse due_at: %w", err)
	}
	if reminder.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if reminder.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	if reminder.LastSentAt, err = parseNullTime(lastSent); err != nil {
		return nil, fmt.Errorf("parse last_sent_at: %w", err)
	}
	return &reminder, nil
}

func scanSQLiteReminders(rows *sql.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanSQLiteReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
