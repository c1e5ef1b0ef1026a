// Package prompt handles LLM prompt construction and response sanitization.
// Sanitize is the reliability layer. It defensively handles LLM output quirks
// (code fences, backticks, prompt markers) regardless of how well the
// instructions constrain the model.
package prompt

import (
	"fmt"
	"strings"
)

// Instructions is the fixed system text sent with every generation request.
const Instructions = "You convert user requests into one safe shell command. " +
	"Respond with exactly one bash command and no explanation. " +
	"Do not include markdown, comments, backticks, or a leading '$'. " +
	"If a command is unsafe or ambiguous, prefer a non-destructive command."

// Build turns the user query and the suggestions rejected so far into the
// model input. With nothing rejected the query is passed through unchanged.
func Build(query string, rejected []string) string {
	if len(rejected) == 0 {
		return query
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Original request: %s\n\n", query)
	b.WriteString("The user rejected these commands:\n")
	for i, s := range rejected {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nReturn a different command that satisfies the same request.")
	return b.String()
}
