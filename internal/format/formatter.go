package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hray3182/Recuerdame/internal/models"
)

const dateTimeLayout = "2006-01-02 15:04"

// Money renders a peso amount with "." thousands separators: $1.000 COP.
func Money(n int64) string {
	return "$" + strings.ReplaceAll(humanize.Comma(n), ",", ".") + " COP"
}

// DateTime renders an instant in the local zone as "2006-01-02 15:04".
func DateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dateTimeLayout)
}

func statusIcon(r *models.Reminder) string {
	if r.IsDone() {
		return "✅"
	}
	return "⏳"
}

func categoryIcon(r *models.Reminder) string {
	if r.Category == models.CategoryPago {
		return "💸"
	}
	return "🔔"
}

// FormatList renders one line per reminder under a bold title.
func FormatList(rows []*models.Reminder, title string, loc *time.Location) string {
	if len(rows) == 0 {
		return "✅ No hay recordatorios para mostrar."
	}

	var sb strings.Builder
	sb.WriteString("**" + title + "**")
	for _, r := range rows {
		fmt.Fprintf(&sb, "\n%s %s #%d — %s — %s", statusIcon(r), categoryIcon(r), r.ReminderID, DateTime(r.DueAt, loc), Escape(r.Task))
		if r.Amount != nil && *r.Amount > 0 {
			sb.WriteString(" — " + Money(*r.Amount))
		}
	}
	return sb.String()
}

// FormatPaySum lists the payments among rows and their total. A payment
// without an amount is listed as $0.
func FormatPaySum(rows []*models.Reminder, label string, loc *time.Location) string {
	var (
		pays  []*models.Reminder
		total int64
	)
	for _, r := range rows {
		if !r.IsPayment() {
			continue
		}
		pays = append(pays, r)
		if r.Amount != nil {
			total += *r.Amount
		}
	}
	if len(pays) == 0 {
		return fmt.Sprintf("✅ No veo pagos en %s.", label)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**💸 Pagos en %s:**\n", label)
	for _, r := range pays {
		var amount int64
		if r.Amount != nil {
			amount = *r.Amount
		}
		fmt.Fprintf(&sb, "\n%s #%d — %s — %s — %s", statusIcon(r), r.ReminderID, DateTime(r.DueAt, loc), Money(amount), Escape(r.Task))
	}
	fmt.Fprintf(&sb, "\n\n🔢 Total: %s", Money(total))
	return sb.String()
}

// Created confirms a stored reminder.
func Created(r *models.Reminder, loc *time.Location) string {
	msg := fmt.Sprintf("📌 Guardado: #%d\n⏰ %s\n🧾 %s", r.ReminderID, DateTime(r.DueAt, loc), Escape(r.Task))
	if r.Amount != nil && *r.Amount > 0 {
		msg += "\n💸 Monto: " + Money(*r.Amount)
	}
	return msg
}

// Reminder is the text of a delivered notification.
func Reminder(task string) string {
	return fmt.Sprintf("⏰ Recordatorio:\n%s\n\n¿Qué hiciste?", task)
}

// IDs renders "#4, #5".
func IDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, ", ")
}
