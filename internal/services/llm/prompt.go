package llm

import (
	"fmt"
	"strings"

	"highlighter/internal/textutil"
)

const titleSystemPrompt = "You write short, punchy titles for live-stream highlight clips. " +
	"Reply with the title only: no quotes, no explanation, same language as the transcript."

func buildTitlePrompt(text string, maxChars int) string {
	return fmt.Sprintf(
		"Here is the transcript of a live-stream highlight. Summarize it into an engaging video title "+
			"that is no more than %d characters:\n\n%s\n\nTitle:",
		maxChars,
		textutil.TruncateRunes(text, maxPromptChars),
	)
}

// cleanTitle keeps the first non-empty line and strips wrapping quotes and a
// leading "Title:" label.
func cleanTitle(content string) string {
	line := ""
	for _, candidate := range strings.Split(content, "\n") {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			line = candidate
			break
		}
	}
	for _, prefix := range []string{"Title:", "title:", "标题：", "标题:"} {
		line = strings.TrimSpace(strings.TrimPrefix(line, prefix))
	}
	return strings.TrimSpace(strings.Trim(line, "\"'“”‘’「」《》"))
}
