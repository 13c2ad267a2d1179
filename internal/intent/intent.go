package intent

import (
	"time"

	"github.com/hray3182/Recuerdame/internal/models"
	"github.com/hray3182/Recuerdame/internal/period"
)

type Kind int

const (
	Unrecognized Kind = iota
	CreateReminder
	DeleteByIDs
	ConfirmDone
	ListPending
	ListAll
	ListPeriod
	SumPeriod
	ShowHelp
)

func (k Kind) String() string {
	switch k {
	case CreateReminder:
		return "create_reminder"
	case DeleteByIDs:
		return "delete_by_ids"
	case ConfirmDone:
		return "confirm_done"
	case ListPending:
		return "list_pending"
	case ListAll:
		return "list_all"
	case ListPeriod:
		return "list_period"
	case SumPeriod:
		return "sum_period"
	case ShowHelp:
		return "show_help"
	default:
		return "unrecognized"
	}
}

// Intent is the structured meaning of one message. Only the fields of its
// Kind are set.
type Intent struct {
	Kind Kind

	// CreateReminder. A nil Due means the date still has to be asked for.
	Task     string
	Due      *time.Time
	Amount   *int64
	Category models.Category

	// DeleteByIDs, in first-seen order without duplicates.
	IDs []int64

	// ListPeriod and SumPeriod.
	Period period.Period
}
