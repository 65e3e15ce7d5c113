package lint

// literal is a quoted string found while masking.
type literal struct {
	Line   int
	Column int
	Quote  byte
	Body   string
}

// mask blanks out comments and the contents of string and template literals,
// keeping every newline and byte offset in place so that rule matches on the
// masked text map back to the original positions. Quote characters are kept.
// Regular expression literals are not recognised.
func mask(src string) (string, []literal) {
	out := []byte(src)
	var literals []literal

	line, col := 1, 1
	advance := func(i int) {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	blank := func(i int) {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				blank(i)
				advance(i)
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			for i < len(src) {
				if src[i] == '*' && i+1 < len(src) && src[i+1] == '/' {
					blank(i)
					blank(i + 1)
					advance(i)
					advance(i + 1)
					i += 2
					break
				}
				blank(i)
				advance(i)
				i++
			}
		case c == '\'' || c == '"' || c == '`':
			lit := literal{Line: line, Column: col, Quote: c}
			start := i + 1
			advance(i)
			i++
			for i < len(src) && src[i] != c {
				if src[i] == '\n' && c != '`' {
					break
				}
				if src[i] == '\\' && i+1 < len(src) {
					blank(i)
					advance(i)
					i++
				}
				blank(i)
				advance(i)
				i++
			}
			lit.Body = src[start:i]
			literals = append(literals, lit)
			if i < len(src) && src[i] == c {
				advance(i)
				i++
			}
		default:
			advance(i)
			i++
		}
	}

	return string(out), literals
}
