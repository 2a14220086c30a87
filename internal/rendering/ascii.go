package rendering

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"–", "-", "—", "-",
	"…", "...",
	" ", " ",
	"\t", "    ",
)

// ToASCII decomposes text (NFKD) and drops every rune outside printable ASCII.
// Newlines are kept. The core PDF fonts cannot draw anything else.
func ToASCII(text string) string {
	if text == "" {
		return ""
	}

	decomposed := norm.NFKD.String(punctuation.Replace(text))

	var result strings.Builder
	result.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r == '\n':
			result.WriteRune(r)
		case r > unicode.MaxASCII || r < 0x20 || r == 0x7f:
			continue
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
