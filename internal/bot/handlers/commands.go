package handlers

import (
	"context"

	"github.com/hray3182/Recuerdame/internal/format"
	"github.com/hray3182/Recuerdame/internal/models"
)

// Command answers a slash command.
func (h *Handlers) Command(ctx context.Context, chatID int64, name string) Reply {
	switch name {
	case "start":
		return Reply{Text: startText}
	case "help":
		return Reply{Text: helpText}
	case "list":
		return h.list(ctx, chatID, models.StatusPending, pendingTitle)
	case "listall":
		return h.list(ctx, chatID, "", allTitle)
	case "sumq":
		p := h.periods.Current()
		rows, err := h.store.ListInRange(ctx, chatID, p.Start, p.End, "")
		if err != nil {
			return h.failure(chatID, err, "sum period")
		}
		return Reply{Text: format.FormatPaySum(rows, p.Label, h.extractor.Location())}
	default:
		return Reply{Text: fallbackText}
	}
}
