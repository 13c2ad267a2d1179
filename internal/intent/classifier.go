package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hray3182/Recuerdame/internal/extract"
	"github.com/hray3182/Recuerdame/internal/period"
)

// Rule recognizes one kind of message. Rules are tried in order and the
// first match wins.
type Rule struct {
	Name  string
	Match func(text string) (Intent, bool)
}

type Classifier struct {
	extractor *extract.Extractor
	periods   *period.Resolver
	rules     []Rule
}

func NewClassifier(extractor *extract.Extractor, periods *period.Resolver) *Classifier {
	c := &Classifier{extractor: extractor, periods: periods}
	c.rules = []Rule{
		{Name: "delete", Match: MatchDelete},
		{Name: "command", Match: c.matchCommand},
		{Name: "confirm", Match: MatchConfirm},
		{Name: "sum_period", Match: c.matchSumPeriod},
		{Name: "create", Match: c.matchCreate},
	}
	return c
}

// Rules returns the ordered rule list.
func (c *Classifier) Rules() []Rule {
	return c.rules
}

func (c *Classifier) Classify(text string) Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return Intent{Kind: Unrecognized}
	}
	for _, rule := range c.rules {
		if in, ok := rule.Match(text); ok {
			return in
		}
	}
	return Intent{Kind: Unrecognized}
}

var (
	deletePrefixRe = regexp.MustCompile(`^(borrar|borra|eliminar|elimina)\b`)
	idRe           = regexp.MustCompile(`#?(\d+)`)
)

// MatchDelete recognizes "borrar 4", "eliminar #4, #5". Without ids it does
// not match.
func MatchDelete(text string) (Intent, bool) {
	folded := extract.Fold(strings.TrimSpace(text))
	if !deletePrefixRe.MatchString(folded) {
		return Intent{}, false
	}

	var ids []int64
	seen := make(map[int64]bool)
	for _, m := range idRe.FindAllStringSubmatch(folded, -1) {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return Intent{}, false
	}
	return Intent{Kind: DeleteByIDs, IDs: ids}, true
}

var (
	helpPhrases = map[string]bool{
		"generar lista de comandos": true, "genera comando": true, "comandos": true,
		"comandos disponibles": true, "ayuda": true,
	}
	pendingListPhrases = map[string]bool{
		"lista": true, "generar lista": true, "generar la lista": true,
		"genera lista": true, "genera la lista": true,
	}
	fullListPhrases = map[string]bool{
		"genera toda la lista": true, "generar toda la lista": true,
		"toda la lista": true, "lista completa": true,
	}
	periodListPhrases = map[string]bool{
		"genera toda la de la quincena": true, "generar toda la de la quincena": true,
		"lista de la quincena": true, "toda la quincena": true,
	}
)

// matchCommand compares the whole message against closed phrase sets.
func (c *Classifier) matchCommand(text string) (Intent, bool) {
	t := extract.Fold(strings.TrimSpace(text))
	switch {
	case helpPhrases[t]:
		return Intent{Kind: ShowHelp}, true
	case pendingListPhrases[t]:
		return Intent{Kind: ListPending}, true
	case fullListPhrases[t]:
		return Intent{Kind: ListAll}, true
	case periodListPhrases[t]:
		return Intent{Kind: ListPeriod, Period: c.periods.Current()}, true
	}
	return Intent{}, false
}

var confirmPhrases = []string{
	"ya", "listo", "hecho", "ok", "okey", "confirmo", "pagado",
	"realizado", "ya lo hice", "ya lo pague",
}

// MatchConfirm recognizes "ya", "listo", "ya lo pagué"... either as the whole
// message or as words inside it.
func MatchConfirm(text string) (Intent, bool) {
	t := extract.Fold(strings.TrimSpace(text))
	for _, p := range confirmPhrases {
		if extract.ContainsWords(t, p) {
			return Intent{Kind: ConfirmDone}, true
		}
	}
	return Intent{}, false
}

var sumKeywords = []string{"suma", "sumame", "sumar", "cuanto debo", "cuanto tengo", "total"}

func (c *Classifier) matchSumPeriod(text string) (Intent, bool) {
	t := extract.Fold(text)
	if !strings.Contains(t, "quincena") {
		return Intent{}, false
	}
	for _, k := range sumKeywords {
		if strings.Contains(t, k) {
			p, ok := c.periods.Parse(text)
			if !ok {
				p = c.periods.Current()
			}
			return Intent{Kind: SumPeriod, Period: p}, true
		}
	}
	return Intent{}, false
}
