package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Grouped thousands ("1.000", "$50,000") or a bare digit run.
	amountCandidateRe = regexp.MustCompile(`\$?\s*\d{1,3}(?:[.,]\d{3})+|\$?\s*\d+`)
	// Tokens large enough to be money: grouped thousands or 4+ bare digits.
	moneyTokenRe  = regexp.MustCompile(`\$?\s*\d{1,3}(?:[.,]\d{3})+|\$?\s*\d{4,}`)
	copWordRe     = regexp.MustCompile(`\bcop\b`)
	monthBeforeRe = regexp.MustCompile(`\b(?:` + monthPattern + `)\s+(?:del?\s+)?$`)
)

var moneyKeywords = []string{"pagar", "pague", "pago", "pesos", "debo", "$"}

const minAmountDigits = 4

// HasMoneyContext reports whether text talks about money at all.
func HasMoneyContext(text string) bool {
	folded := Fold(text)
	for _, k := range moneyKeywords {
		if strings.Contains(folded, k) {
			return true
		}
	}
	return copWordRe.MatchString(folded)
}

// Amount returns the largest money amount mentioned in text. It only looks
// for numbers when the sentence has a money context, and ignores clock
// times, date fragments and anything shorter than four digits.
func Amount(text string) (int64, bool) {
	if !HasMoneyContext(text) {
		return 0, false
	}

	var (
		best  int64
		found bool
	)
	for _, loc := range amountCandidateRe.FindAllStringIndex(text, -1) {
		if touchesColon(text, loc[0], loc[1]) || touchesDateSeparator(text, loc[0], loc[1]) || isYearAfterMonth(text, loc[0], loc[1]) {
			continue
		}
		digits := onlyDigits(text[loc[0]:loc[1]])
		if len(digits) < minAmountDigits {
			continue
		}
		val, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || val <= 0 {
			continue
		}
		if !found || val > best {
			best, found = val, true
		}
	}
	return best, found
}

// StripMoney blanks out money-sized numbers so the calendar parser does not
// read them as dates. Clock times (anything touching ':'), date fragments
// ("2026-02-03", "3/2/2026") and a year right after a month name are kept.
func StripMoney(text string) string {
	var sb strings.Builder
	last := 0
	for _, loc := range moneyTokenRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if touchesColon(text, start, end) || touchesDateSeparator(text, start, end) || isYearAfterMonth(text, start, end) {
			continue
		}
		if len(onlyDigits(text[start:end])) < minAmountDigits {
			continue
		}
		sb.WriteString(text[last:start])
		sb.WriteString(" ")
		last = end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func onlyDigits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func touchesColon(text string, start, end int) bool {
	if strings.Contains(text[start:end], ":") {
		return true
	}
	return (start > 0 && text[start-1] == ':') || (end < len(text) && text[end] == ':')
}

func touchesDateSeparator(text string, start, end int) bool {
	isSep := func(b byte) bool { return b == '-' || b == '/' }
	return (start > 0 && isSep(text[start-1])) || (end < len(text) && isSep(text[end]))
}

func isYearAfterMonth(text string, start, end int) bool {
	token := strings.TrimSpace(text[start:end])
	if len(token) != 4 || onlyDigits(token) != token {
		return false
	}
	return monthBeforeRe.MatchString(Fold(text[:start]) + " ")
}
