package llm

import (
	"regexp"
	"strings"
)

var (
	thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)
	// an optional language tag must be a single word directly followed by a newline
	fenced  = regexp.MustCompile("(?s)\\A```(?:[\\w+-]*\\n)?(.*?)\\s*```\\z")
	opening = regexp.MustCompile("\\A```[\\w+-]*\\n?")
)

// CleanText removes wrappers that some models put around plain-text answers:
// <think>...</think> reasoning traces and one enclosing ``` block.
func CleanText(text string) string {
	return StripCodeFence(thinkBlock.ReplaceAllString(text, ""))
}

// StripCodeFence unwraps a single enclosing markdown code block. A fence that
// is opened but never closed loses only its opening line. Other text is trimmed.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if m := fenced.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(opening.ReplaceAllString(text, ""))
}
