package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	monthPattern   = `enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre`
	weekdayPattern = `lunes|martes|miercoles|jueves|viernes|sabado|domingo`
)

// MonthNames lists the Spanish month names in folded form, in calendar
// order, including the "setiembre" variant.
var MonthNames = []struct {
	Name  string
	Month time.Month
}{
	{"enero", time.January}, {"febrero", time.February}, {"marzo", time.March},
	{"abril", time.April}, {"mayo", time.May}, {"junio", time.June},
	{"julio", time.July}, {"agosto", time.August}, {"septiembre", time.September},
	{"setiembre", time.September}, {"octubre", time.October},
	{"noviembre", time.November}, {"diciembre", time.December},
}

var weekdays = map[string]time.Weekday{
	"domingo": time.Sunday, "lunes": time.Monday, "martes": time.Tuesday,
	"miercoles": time.Wednesday, "jueves": time.Thursday, "viernes": time.Friday,
	"sabado": time.Saturday,
}

var (
	relativeRe  = regexp.MustCompile(`\b(?:en|dentro de)\s+(\d+)\s*(minutos|minuto|min|m|horas|hora|h|dias|dia|semanas|semana)\b`)
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`)
	dayMonthRe  = regexp.MustCompile(`\b(\d{1,2})\s+de\s+(` + monthPattern + `)(?:\s+(?:del?\s+)?(\d{4}))?\b`)
	monthDayRe  = regexp.MustCompile(`\b(` + monthPattern + `)\s+(\d{1,2})\b(?:\s+(?:de\s+)?(\d{4})\b)?`)
	monthOnlyRe = regexp.MustCompile(`\b(` + monthPattern + `)\b(?:\s+(?:del?\s+)?(\d{4})\b)?`)
	weekdayRe   = regexp.MustCompile(`\b(?:(proximo|este|el)\s+)?(` + weekdayPattern + `)\b`)
	meridiemRe  = regexp.MustCompile(`\bde la (manana|tarde|noche)\b`)
	// "3 de la tarde", "7:30 de la manana"
	hourMeridiemRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s+de la (manana|tarde|noche)\b`)
	// "esta noche", "en la tarde", "por la manana"
	partOfDayRe = regexp.MustCompile(`\b(?:esta|en la|por la) (manana|tarde|noche)\b`)
	pasadoRe    = regexp.MustCompile(`\bpasado\s+manana\b`)
	tomorrowRe  = regexp.MustCompile(`\bmanana\b`)
	todayRe     = regexp.MustCompile(`\bhoy\b`)
	clockRe     = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?:\s*([ap])\.?\s?m\b\.?)?`)
	ampmRe      = regexp.MustCompile(`\b(\d{1,2})\s*([ap])\.?\s?m\b\.?`)
	aLasRe      = regexp.MustCompile(`\ba las?\s+(\d{1,2})\b`)
	ampmHintRe  = regexp.MustCompile(`\b\d{1,2}\s*(am|pm)\b`)
	noonRe      = regexp.MustCompile(`\bmediodia\b`)
	midnightRe  = regexp.MustCompile(`\bmedianoche\b`)
)

var dayKeywords = []string{
	"hoy", "manana",
	"lunes", "martes", "miercoles", "jueves", "viernes", "sabado", "domingo",
	"proximo",
	"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto",
	"septiembre", "setiembre", "octubre", "noviembre", "diciembre",
	"en ", "dentro", "esta tarde", "esta noche",
}

// Extractor resolves Spanish date/time expressions against "now" in a
// single configured zone.
type Extractor struct {
	loc           *time.Location
	defaultHour   int
	defaultMinute int
	now           func() time.Time
}

// New builds an Extractor. defaultHour ("HH:MM") is used when a message names
// a day but no time of day.
func New(loc *time.Location, defaultHour string, now func() time.Time) (*Extractor, error) {
	if loc == nil {
		return nil, fmt.Errorf("extract: location is nil")
	}
	t, err := time.Parse("15:04", strings.TrimSpace(defaultHour))
	if err != nil {
		return nil, fmt.Errorf("extract: default hour %q: %w", defaultHour, err)
	}
	if now == nil {
		now = time.Now
	}
	return &Extractor{
		loc:           loc,
		defaultHour:   t.Hour(),
		defaultMinute: t.Minute(),
		now:           now,
	}, nil
}

// Now returns the current instant in the configured zone.
func (e *Extractor) Now() time.Time {
	return e.now().In(e.loc)
}

func (e *Extractor) Location() *time.Location {
	return e.loc
}

// MentionsDay reports whether text names a day (today, tomorrow, a weekday,
// a month, a relative "en ..." or a part of today).
func MentionsDay(text string) bool {
	folded := Fold(text)
	for _, k := range dayKeywords {
		if strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

// HasTimeHint reports whether text carries an explicit time of day.
func HasTimeHint(text string) bool {
	folded := Fold(text)
	return strings.Contains(folded, ":") || ampmHintRe.MatchString(folded) || strings.Contains(folded, "a las")
}

// Relative resolves "en N minutos/horas/dias/semanas" (or "dentro de N ...")
// as an offset from now.
func (e *Extractor) Relative(text string) (time.Time, bool) {
	m := relativeRe.FindStringSubmatch(Fold(text))
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	now := e.Now()
	switch m[2] {
	case "minutos", "minuto", "min", "m":
		return now.Add(time.Duration(n) * time.Minute), true
	case "horas", "hora", "h":
		return now.Add(time.Duration(n) * time.Hour), true
	case "dias", "dia":
		return now.AddDate(0, 0, n), true
	default:
		return now.AddDate(0, 0, 7*n), true
	}
}

// DateTime finds a date/time expression in text and resolves it to an
// instant in the configured zone, preferring the future for ambiguous
// expressions. Money amounts are removed first so "1.000" is never read as a
// date. A day without a time of day gets the default hour.
func (e *Extractor) DateTime(text string) (time.Time, bool) {
	if t, ok := e.Relative(text); ok {
		return t, true
	}

	cleaned := Fold(StripMoney(text))
	m := scanCalendar(cleaned)
	if m.dateKind == dateNone && !m.hasTime && m.partOfDay == "" {
		return time.Time{}, false
	}

	if !m.hasTime {
		switch {
		case m.partOfDay == "tarde":
			m.hour, m.minute = 15, 0
		case m.partOfDay == "noche":
			m.hour, m.minute = 20, 0
		case m.dateKind != dateNone, m.partOfDay == "manana", MentionsDay(cleaned) && !HasTimeHint(cleaned):
			m.hour, m.minute = e.defaultHour, e.defaultMinute
		default:
			return time.Time{}, false
		}
	}

	return e.resolve(m, e.Now())
}

type dateKind int

const (
	dateNone dateKind = iota
	dateToday
	dateOffset
	dateWeekday
	dateAbsolute
	dateMonth
)

type calendarMatch struct {
	dateKind     dateKind
	offsetDays   int
	weekday      time.Weekday
	forceNext    bool
	year         int
	month        time.Month
	day          int
	yearExplicit bool

	hasTime   bool
	hour      int
	minute    int
	partOfDay string
}

// scanCalendar pulls the date and the time of day out of folded text.
func scanCalendar(text string) calendarMatch {
	var m calendarMatch

	if hm := hourMeridiemRe.FindStringSubmatch(text); hm != nil {
		h, _ := strconv.Atoi(hm[1])
		mi, _ := strconv.Atoi(hm[2])
		setTime(&m, h, mi, hm[3])
		text = hourMeridiemRe.ReplaceAllString(text, " ")
	}

	meridiem := ""
	if mm := meridiemRe.FindStringSubmatch(text); mm != nil {
		meridiem = mm[1]
		text = meridiemRe.ReplaceAllString(text, " ")
	}
	if pm := partOfDayRe.FindStringSubmatch(text); pm != nil {
		m.partOfDay = pm[1]
		m.dateKind = dateToday
		text = partOfDayRe.ReplaceAllString(text, " ")
	}
	if meridiem == "" && (m.partOfDay == "tarde" || m.partOfDay == "noche") {
		meridiem = m.partOfDay
	}

	scanTime(&m, text, meridiem)
	scanDate(&m, text)
	return m
}

func scanTime(m *calendarMatch, text, meridiem string) {
	if m.hasTime {
		return
	}
	if c := clockRe.FindStringSubmatch(text); c != nil {
		h, _ := strconv.Atoi(c[1])
		mi, _ := strconv.Atoi(c[2])
		setTime(m, h, mi, suffixMeridiem(c[3], meridiem))
		return
	}
	if c := ampmRe.FindStringSubmatch(text); c != nil {
		h, _ := strconv.Atoi(c[1])
		setTime(m, h, 0, suffixMeridiem(c[2], meridiem))
		return
	}
	if c := aLasRe.FindStringSubmatch(text); c != nil {
		h, _ := strconv.Atoi(c[1])
		setTime(m, h, 0, meridiem)
		return
	}
	if noonRe.MatchString(text) {
		setTime(m, 12, 0, "")
		return
	}
	if midnightRe.MatchString(text) {
		setTime(m, 0, 0, "")
	}
}

func suffixMeridiem(suffix, phrase string) string {
	switch suffix {
	case "a":
		return "manana"
	case "p":
		return "tarde"
	}
	return phrase
}

func setTime(m *calendarMatch, h, mi int, meridiem string) {
	switch meridiem {
	case "tarde", "noche":
		if h < 12 {
			h += 12
		}
	case "manana":
		if h == 12 {
			h = 0
		}
	}
	if h > 23 || mi > 59 {
		return
	}
	m.hasTime = true
	m.hour, m.minute = h, mi
}

func scanDate(m *calendarMatch, text string) {
	if d := isoDateRe.FindStringSubmatch(text); d != nil {
		y, _ := strconv.Atoi(d[1])
		mo, _ := strconv.Atoi(d[2])
		day, _ := strconv.Atoi(d[3])
		setAbsolute(m, y, time.Month(mo), day, true)
		return
	}
	if d := dayMonthRe.FindStringSubmatch(text); d != nil {
		day, _ := strconv.Atoi(d[1])
		y, explicit := parseYear(d[3])
		setAbsolute(m, y, monthByName(d[2]), day, explicit)
		return
	}
	if d := monthDayRe.FindStringSubmatch(text); d != nil {
		day, _ := strconv.Atoi(d[2])
		y, explicit := parseYear(d[3])
		setAbsolute(m, y, monthByName(d[1]), day, explicit)
		return
	}
	if d := slashDateRe.FindStringSubmatch(text); d != nil {
		day, _ := strconv.Atoi(d[1])
		mo, _ := strconv.Atoi(d[2])
		y, explicit := parseYear(d[3])
		if explicit && y < 100 {
			y += 2000
		}
		setAbsolute(m, y, time.Month(mo), day, explicit)
		return
	}
	if d := monthOnlyRe.FindStringSubmatch(text); d != nil {
		m.dateKind = dateMonth
		m.month = monthByName(d[1])
		m.year, m.yearExplicit = parseYear(d[2])
		return
	}
	if pasadoRe.MatchString(text) {
		m.dateKind, m.offsetDays = dateOffset, 2
		return
	}
	if tomorrowRe.MatchString(text) {
		m.dateKind, m.offsetDays = dateOffset, 1
		return
	}
	if todayRe.MatchString(text) {
		m.dateKind = dateToday
		return
	}
	if w := weekdayRe.FindStringSubmatch(text); w != nil {
		m.dateKind = dateWeekday
		m.weekday = weekdays[w[2]]
		m.forceNext = w[1] == "proximo"
	}
}

func setAbsolute(m *calendarMatch, y int, mo time.Month, day int, explicit bool) {
	if mo < time.January || mo > time.December || day < 1 || day > 31 {
		return
	}
	m.dateKind = dateAbsolute
	m.year, m.month, m.day, m.yearExplicit = y, mo, day, explicit
}

func parseYear(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return y, true
}

func monthByName(name string) time.Month {
	for _, mn := range MonthNames {
		if mn.Name == name {
			return mn.Month
		}
	}
	return 0
}

func (e *Extractor) resolve(m calendarMatch, now time.Time) (time.Time, bool) {
	at := func(y int, mo time.Month, d int) time.Time {
		return time.Date(y, mo, d, m.hour, m.minute, 0, 0, e.loc)
	}

	switch m.dateKind {
	case dateNone:
		t := at(now.Year(), now.Month(), now.Day())
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t, true
	case dateToday:
		return at(now.Year(), now.Month(), now.Day()), true
	case dateOffset:
		return at(now.Year(), now.Month(), now.Day()+m.offsetDays), true
	case dateWeekday:
		delta := (int(m.weekday) - int(now.Weekday()) + 7) % 7
		t := at(now.Year(), now.Month(), now.Day()+delta)
		if delta == 0 && (m.forceNext || !t.After(now)) {
			t = t.AddDate(0, 0, 7)
		}
		return t, true
	case dateAbsolute:
		y := m.year
		if !m.yearExplicit {
			y = now.Year()
		}
		t := at(y, m.month, m.day)
		if t.Day() != m.day {
			return time.Time{}, false
		}
		if !m.yearExplicit && t.Before(now) {
			t = at(y+1, m.month, m.day)
			if t.Day() != m.day {
				return time.Time{}, false
			}
		}
		return t, true
	case dateMonth:
		// A bare month keeps today's day of month, clamped to the month's length.
		y := m.year
		if !m.yearExplicit {
			y = now.Year()
		}
		t := at(y, m.month, min(now.Day(), daysIn(y, m.month, e.loc)))
		if !m.yearExplicit && !t.After(now) {
			y++
			t = at(y, m.month, min(now.Day(), daysIn(y, m.month, e.loc)))
		}
		return t, true
	}
	return time.Time{}, false
}

func daysIn(y int, mo time.Month, loc *time.Location) int {
	return time.Date(y, mo+1, 0, 0, 0, 0, 0, loc).Day()
}
