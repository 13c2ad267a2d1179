package intent

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hray3182/Recuerdame/internal/extract"
	"github.com/hray3182/Recuerdame/internal/models"
)

const fallbackTask = "Recordatorio"

var (
	reminderVerbRe = regexp.MustCompile(`\b(?:recuerdame|recuerdeme|recordame|recordarme)\b`)
	payVerbRe      = regexp.MustCompile(`\b(?:pagar|pago|pague|debo)`)

	quotedRes = []*regexp.Regexp{
		regexp.MustCompile(`"([^"]+)"`),
		regexp.MustCompile(`“([^”]+)”`),
		regexp.MustCompile(`«([^»]+)»`),
	}
)

// Task cleanup, applied in order to the original (unfolded) text.
var (
	triggerRe = regexp.MustCompile(`(?i)^\s*(?:rec(?:ue|ué)rd(?:a|e)me|recordar?me)\b\s*[,:]?\s*(?:que\s+)?`)

	taskStripRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:en|dentro\s+de)\s+\d+\s*(?:minutos|minuto|min|m|horas|hora|h|d[ií]as|d[ií]a|semanas|semana)\b`),
		regexp.MustCompile(`(?i)\b(?:el\s+)?\d{1,2}\s+de\s+(?:` + monthAlternatives + `)(?:\s+(?:del?\s+)?\d{4})?\b`),
		regexp.MustCompile(`(?i)\bde\s+la\s+(?:ma(?:ñ|n)ana|tarde|noche)\b`),
		regexp.MustCompile(`(?i)\b(?:esta|en\s+la|por\s+la)\s+(?:ma(?:ñ|n)ana|tarde|noche)\b`),
		regexp.MustCompile(`(?i)\bpasado\s+ma(?:ñ|n)ana\b`),
		regexp.MustCompile(`(?i)\ba\s+las?\s+\d{1,2}(?::\d{2})?(?:\s*[ap]\.?\s?m\b\.?)?`),
		regexp.MustCompile(`(?i)\b(?:hoy|ma(?:ñ|n)ana|el|este|esta|pr(?:ó|o)ximo|cada)\b`),
		regexp.MustCompile(`(?i)\b(?:lunes|martes|mi(?:é|e)rcoles|jueves|viernes|s(?:á|a)bado|domingo)\b`),
		regexp.MustCompile(`(?i)\b(?:en|para|de|del)\s+(?:` + monthAlternatives + `)(?:\s+(?:del?\s+)?\d{4})?\b`),
		regexp.MustCompile(`(?i)\b(?:` + monthAlternatives + `)\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}(?:\s*[ap]\.?\s?m\b\.?)?`),
		regexp.MustCompile(`(?i)\b\d{1,2}\s*[ap]\.?\s?m\b\.?`),
		regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`),
		regexp.MustCompile(`(?i)\$?\s*\d{1,3}(?:[.,]\d{3})+(?:\s*(?:pesos|cop)\b)?|\$?\s*\d{4,}(?:\s*(?:pesos|cop)\b)?`),
		regexp.MustCompile(`\b\d{1,2}\b`),
	}

	spacesRe = regexp.MustCompile(`\s+`)
)

const monthAlternatives = `enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre`

// matchCreate recognizes reminder and payment requests. A missing date is not
// a failure: Due stays nil and the caller asks for it.
func (c *Classifier) matchCreate(text string) (Intent, bool) {
	text = strings.TrimSpace(text)
	folded := extract.Fold(text)
	isReminder := reminderVerbRe.MatchString(folded)
	isPay := payVerbRe.MatchString(folded)
	if !isReminder && !isPay {
		return Intent{}, false
	}

	in := Intent{Kind: CreateReminder, Category: models.CategoryGeneral}
	if amount, ok := extract.Amount(text); ok {
		in.Amount = &amount
	}
	if in.Amount != nil || isPay {
		in.Category = models.CategoryPago
	}

	quoted, rest, hasQuote := splitQuoted(text)
	if due, ok := c.due(rest, text, hasQuote); ok {
		in.Due = &due
	}

	if hasQuote {
		in.Task = quoted
	} else {
		in.Task = DeriveTask(text, in.Category == models.CategoryPago)
	}
	return in, true
}

// due reads the date outside the quoted task first so a task like
// "revisar el 5" does not move the reminder.
func (c *Classifier) due(rest, full string, hasQuote bool) (time.Time, bool) {
	if hasQuote {
		if t, ok := c.extractor.DateTime(rest); ok {
			return t, true
		}
	}
	return c.extractor.DateTime(full)
}

func splitQuoted(text string) (quoted, rest string, ok bool) {
	for _, re := range quotedRes {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		q := strings.TrimSpace(text[loc[2]:loc[3]])
		if q == "" {
			continue
		}
		return q, text[:loc[0]] + " " + text[loc[1]:], true
	}
	return "", text, false
}

// DeriveTask removes the trigger verb, date and time phrases, money and small
// numbers from text and returns what is left as the task description.
func DeriveTask(text string, payment bool) string {
	cleaned := strings.TrimSpace(triggerRe.ReplaceAllString(strings.TrimSpace(text), ""))

	task := cleaned
	for _, re := range taskStripRes {
		task = re.ReplaceAllString(task, " ")
	}
	task = strings.Trim(spacesRe.ReplaceAllString(task, " "), " ,.-")

	if payment && !strings.Contains(extract.Fold(task), "pagar") {
		task = strings.TrimSpace("pagar " + task)
	}
	if utf8.RuneCountInString(task) >= 3 {
		return task
	}

	cleaned = strings.Trim(cleaned, " ,.-")
	if cleaned == "" {
		return fallbackTask
	}
	return cleaned
}
