package cli

import "strings"

// ansiKeyword wraps each printer keyword in a distinct ANSI color, the
// kind of terminal highlighting an interactive tool applies to its own
// output when attached to a tty.
var ansiKeyword = map[string]string{
	"while":       "\x1b[35m",
	"if":          "\x1b[35m",
	"repeat":      "\x1b[35m",
	"times":       "\x1b[35m",
	"shift":       "\x1b[36m",
	"guard_shift": "\x1b[36m",
	"output":      "\x1b[33m",
}

const ansiReset = "\x1b[0m"

// colorize highlights keyword tokens line by line. Lines are the unit of
// work because the printer's grammar places at most one keyword at the
// start of an indented line, so a simple prefix scan after stripping
// leading whitespace is sufficient and avoids touching `@N` operands or
// string-literal output payloads.
func colorize(doc string) string {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(trimmed)]
		for kw, color := range ansiKeyword {
			if strings.HasPrefix(trimmed, kw+" ") || trimmed == kw {
				lines[i] = indent + color + kw + ansiReset + trimmed[len(kw):]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
