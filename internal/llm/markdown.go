package llm

import "strings"

// CleanMarkdown unwraps a response the model wrapped in a fenced code block
// despite instructions. The first line (the opening fence, possibly with a
// language tag) and everything from the last fence onward are dropped.
func CleanMarkdown(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.Contains(text[3:], "```") {
		return text
	}

	first := strings.Index(text, "\n")
	if first < 0 {
		return text
	}

	return strings.TrimSpace(text[first+1 : strings.LastIndex(text, "```")])
}
