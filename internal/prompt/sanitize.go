package prompt

import (
	"regexp"
	"strings"
)

// fenceRe matches a fenced block with an optional bash or sh tag. Any other
// word after the opening fence is part of the command.
var fenceRe = regexp.MustCompile("(?s)```(?:(?i:bash|sh)(?:[ \\t]*\\r?\\n|[ \\t]+))?(.*?)```")

// commandPrefixRe matches a leading "command:" label.
var commandPrefixRe = regexp.MustCompile(`(?i)^\s*command:\s*`)

// promptMarkerRe matches one leading "$" shell prompt marker.
var promptMarkerRe = regexp.MustCompile(`^\$\s*`)

// Sanitize extracts a single clean command line from raw model output.
// It returns "" when nothing usable remains.
//
// Passes are repeated until the output stops changing, so Sanitize is
// idempotent even for inputs that nest markers (e.g. "$ `ls`").
// Every pass only removes text, which bounds the loop.
func Sanitize(raw string) string {
	out := sanitizeOnce(raw)
	for {
		next := sanitizeOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func sanitizeOnce(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	text = strings.Trim(text, "`")
	text = commandPrefixRe.ReplaceAllString(text, "")
	text = promptMarkerRe.ReplaceAllString(text, "")

	line := firstLine(text)
	if line == "" {
		return ""
	}
	return promptMarkerRe.ReplaceAllString(line, "")
}

func firstLine(text string) string {
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
