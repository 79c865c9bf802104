package orchestrator

import (
	"strings"
	"unicode/utf8"
)

// Preview returns the first n code points of text with whitespace runs
// collapsed, followed by "..." when the text was cut.
func Preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)
	return string(runes[:n]) + "..."
}
