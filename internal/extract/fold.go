package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics ("Recuérdame" -> "recuerdame",
// "mañana" -> "manana") so keyword matching accepts both spellings.
func Fold(s string) string {
	lower := strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, lower)
	if err != nil {
		return lower
	}
	return out
}

// ContainsWords reports whether phrase occurs in text as whole words.
// Both arguments are expected to be folded.
func ContainsWords(text, phrase string) bool {
	words := strings.FieldsFunc(text, isSeparator)
	target := strings.FieldsFunc(phrase, isSeparator)
	if len(target) == 0 || len(target) > len(words) {
		return false
	}
	for i := 0; i+len(target) <= len(words); i++ {
		match := true
		for j, w := range target {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
