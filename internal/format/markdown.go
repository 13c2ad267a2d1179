package format

import (
	"regexp"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

var (
	headerRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)$`)
	// **bold** or `code`, in one pass so offsets stay consistent.
	entityRe = regexp.MustCompile("\\*\\*(.+?)\\*\\*|`([^`]+?)`")

	// Marker characters map to private-use runes of the same UTF-16 width.
	escaper   = strings.NewReplacer("*", "\uE000", "`", "\uE001", "#", "\uE002")
	unescaper = strings.NewReplacer("\uE000", "*", "\uE001", "`", "\uE002", "#")
)

// Escape protects user text interpolated into a reply so ParseMarkdown
// sends it literally instead of reading it as markup.
func Escape(s string) string {
	return escaper.Replace(s)
}

// UTF16Len calculates the UTF-16 length of a string.
// Telegram uses UTF-16 code units for entity offsets/lengths.
func UTF16Len(s string) int {
	length := 0
	for _, b := range []byte(s) {
		if (b & 0xc0) != 0x80 {
			if b >= 0xf0 {
				length += 2 // surrogate pair
			} else {
				length++
			}
		}
	}
	return length
}

// ParseMarkdown converts the small Markdown subset used in replies into
// Telegram message entities:
//   - **bold** -> bold
//   - `code` -> code
//   - # Header -> bold
//
// Single * and _ are left alone since task text often contains them. Text
// passed through Escape is restored verbatim.
func ParseMarkdown(text string) ParseResult {
	result := headerRe.ReplaceAllString(text, "**$1**")

	result, entities := extractEntities(result)

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Offset < entities[j].Offset
	})

	return ParseResult{
		Text:     unescaper.Replace(strings.TrimRight(result, " \n")),
		Entities: entities,
	}
}

// extractEntities strips the markers of each match, one at a time, so
// offsets are computed against the text as it will be sent.
func extractEntities(text string) (string, []tgbotapi.MessageEntity) {
	var entities []tgbotapi.MessageEntity
	searchStart := 0
	for searchStart < len(text) {
		loc := entityRe.FindStringSubmatchIndex(text[searchStart:])
		if loc == nil {
			break
		}
		fullStart, fullEnd := loc[0]+searchStart, loc[1]+searchStart
		kind, group := "bold", 2
		if loc[2] == -1 {
			kind, group = "code", 4
		}
		inner := text[loc[group]+searchStart : loc[group+1]+searchStart]

		entities = append(entities, tgbotapi.MessageEntity{
			Type:   kind,
			Offset: UTF16Len(text[:fullStart]),
			Length: UTF16Len(inner),
		})

		text = text[:fullStart] + inner + text[fullEnd:]
		searchStart = fullStart + len(inner)
	}
	return text, entities
}
