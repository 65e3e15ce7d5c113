package lint

import (
	"strings"
)

// StripIndent removes the smallest indentation shared by all non-blank lines
// from every line that carries at least that much leading whitespace. Script
// blocks are nested inside component markup, so their first column is rarely
// column one.
func StripIndent(text string) string {
	lines := strings.Split(text, "\n")

	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := leadingWhitespace(line)
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return text
	}

	for i, line := range lines {
		if leadingWhitespace(line) >= indent {
			lines[i] = line[indent:]
		}
	}
	return strings.Join(lines, "\n")
}

func leadingWhitespace(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}
