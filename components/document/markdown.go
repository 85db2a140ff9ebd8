package document

import (
	"strings"
	"unicode"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

// EscapeMarkdown escapes characters with a meaning in markdown tables and emphasis
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// StripUnprintable drops control and other non printable runes, keeping
// tabs and newlines.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
}
