// Package period resolves "quincena" (half-month) windows.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hray3182/Recuerdame/internal/extract"
)

type Half int

const (
	FirstHalf  Half = 1
	SecondHalf Half = 2
)

func (h Half) String() string {
	if h == SecondHalf {
		return "segunda"
	}
	return "primera"
}

// Period is a resolved quincena in local time. End is inclusive.
type Period struct {
	Start time.Time
	End   time.Time
	Label string
	Year  int
	Month time.Month
	Half  Half
}

var (
	yearRe = regexp.MustCompile(`\b(20\d{2})\b`)

	monthRes = func() []*regexp.Regexp {
		res := make([]*regexp.Regexp, len(extract.MonthNames))
		for i, mn := range extract.MonthNames {
			res[i] = regexp.MustCompile(`\b` + mn.Name + `\b`)
		}
		return res
	}()
)

type Resolver struct {
	loc *time.Location
	now func() time.Time
}

func NewResolver(loc *time.Location, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{loc: loc, now: now}
}

func (r *Resolver) today() time.Time {
	return r.now().In(r.loc)
}

// Range returns the first and last instant of a half of the given month:
// 1st 00:00 to 15th 23:59:59, or 16th 00:00 to the last day 23:59:59.
// The end is the last whole second of the day, not 23:59:00, so anything
// due during the final minute still falls inside the inclusive range.
func (r *Resolver) Range(year int, month time.Month, half Half) (time.Time, time.Time) {
	if half == FirstHalf {
		return time.Date(year, month, 1, 0, 0, 0, 0, r.loc),
			time.Date(year, month, 15, 23, 59, 59, 0, r.loc)
	}
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, r.loc).Day()
	return time.Date(year, month, 16, 0, 0, 0, 0, r.loc),
		time.Date(year, month, lastDay, 23, 59, 59, 0, r.loc)
}

func halfOf(day int) Half {
	if day <= 15 {
		return FirstHalf
	}
	return SecondHalf
}

// Current returns the quincena today falls in.
func (r *Resolver) Current() Period {
	today := r.today()
	half := halfOf(today.Day())
	start, end := r.Range(today.Year(), today.Month(), half)
	return Period{
		Start: start,
		End:   end,
		Label: "esta " + half.String() + " quincena",
		Year:  today.Year(),
		Month: today.Month(),
		Half:  half,
	}
}

// Parse resolves a quincena named in text. "esta quincena" is the current
// one; otherwise a month name is required, "primera"/"segunda" picks the
// half and a 4-digit year overrides the current year.
func (r *Resolver) Parse(text string) (Period, bool) {
	folded := extract.Fold(text)

	if strings.Contains(folded, "esta quincena") {
		return r.Current(), true
	}

	var half Half
	switch {
	case strings.Contains(folded, "primera quincena"):
		half = FirstHalf
	case strings.Contains(folded, "segunda quincena"):
		half = SecondHalf
	}

	var (
		month     time.Month
		monthName string
	)
	for i, mn := range extract.MonthNames {
		if monthRes[i].MatchString(folded) {
			month, monthName = mn.Month, mn.Name
			break
		}
	}
	if month == 0 {
		return Period{}, false
	}

	today := r.today()
	year := today.Year()
	if m := yearRe.FindStringSubmatch(folded); m != nil {
		year, _ = strconv.Atoi(m[1])
	}

	if half == 0 {
		if month == today.Month() && year == today.Year() {
			half = halfOf(today.Day())
		} else {
			half = FirstHalf
		}
	}

	start, end := r.Range(year, month, half)
	return Period{
		Start: start,
		End:   end,
		Label: fmt.Sprintf("%s quincena de %s %d", half, monthName, year),
		Year:  year,
		Month: month,
		Half:  half,
	}, true
}
