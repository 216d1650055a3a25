package filling

import (
	"strings"
	"unicode/utf8"

	"dashweave/internal/logging"
)

// MaxContextLength caps the size of any context string sent to the
// model.
const MaxContextLength = 2000

// Sanitize normalizes a user-supplied context string before it reaches
// a prompt. Blank lines are dropped, each line is trimmed, and the
// result is truncated to MaxContextLength with a "..." marker.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	out := strings.Join(kept, "\n")

	if len(out) > MaxContextLength {
		cut := MaxContextLength
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut] + "..."
		logging.FillingWarn("Context truncated to %d chars", cut)
	}
	return out
}
