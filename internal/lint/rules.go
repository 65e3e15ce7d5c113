package lint

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// source is the text handed to every rule: the raw lines for whitespace
// rules and the masked lines for token rules.
type source struct {
	raw      []string
	masked   []string
	literals []literal
}

func newSource(text string) *source {
	masked, literals := mask(text)
	return &source{
		raw:      strings.Split(text, "\n"),
		masked:   strings.Split(masked, "\n"),
		literals: literals,
	}
}

// finding is a rule hit before severity is attached.
type finding struct {
	Line    int
	Column  int
	Message string
}

type rule func(src *source, options []interface{}) []finding

// builtinRules maps a rule name to its check.
var builtinRules = map[string]rule{
	"no-debugger":        patternRule(regexp.MustCompile(`\bdebugger\b`), "Unexpected 'debugger' statement."),
	"no-console":         patternRule(regexp.MustCompile(`\bconsole\s*\.\s*[A-Za-z_$]`), "Unexpected console statement."),
	"no-var":             patternRule(regexp.MustCompile(`\bvar\s`), "Unexpected var, use let or const instead."),
	"no-alert":           noAlert,
	"eqeqeq":             eqeqeq,
	"no-trailing-spaces": noTrailingSpaces,
	"no-tabs":            noTabs,
	"max-len":            maxLen,
	"semi":               semi,
	"quotes":             quotes,
}

func patternRule(re *regexp.Regexp, message string) rule {
	return func(src *source, _ []interface{}) []finding {
		var out []finding
		for i, line := range src.masked {
			for _, loc := range re.FindAllStringIndex(line, -1) {
				out = append(out, finding{Line: i + 1, Column: loc[0] + 1, Message: message})
			}
		}
		return out
	}
}

var alertPattern = regexp.MustCompile(`(^|[^.\w$])(alert|confirm|prompt)\s*\(`)

func noAlert(src *source, _ []interface{}) []finding {
	var out []finding
	for i, line := range src.masked {
		for _, m := range alertPattern.FindAllStringSubmatchIndex(line, -1) {
			out = append(out, finding{
				Line:    i + 1,
				Column:  m[4] + 1,
				Message: fmt.Sprintf("Unexpected %s.", line[m[4]:m[5]]),
			})
		}
	}
	return out
}

func eqeqeq(src *source, _ []interface{}) []finding {
	var out []finding
	for i, line := range src.masked {
		for j := 0; j+1 < len(line); j++ {
			if line[j+1] != '=' || (line[j] != '=' && line[j] != '!') {
				continue
			}
			if j+2 < len(line) && line[j+2] == '=' {
				j += 2
				continue
			}
			if line[j] == '=' && j > 0 && strings.ContainsRune("=!<>", rune(line[j-1])) {
				continue
			}
			op := line[j : j+2]
			out = append(out, finding{
				Line:    i + 1,
				Column:  j + 1,
				Message: fmt.Sprintf("Expected '%s=' and instead saw '%s'.", op, op),
			})
			j++
		}
	}
	return out
}

func noTrailingSpaces(src *source, _ []interface{}) []finding {
	var out []finding
	for i, line := range src.raw {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimRight(line, " \t")
		if len(trimmed) < len(line) && trimmed != "" {
			out = append(out, finding{Line: i + 1, Column: len(trimmed) + 1, Message: "Trailing spaces not allowed."})
		}
	}
	return out
}

func noTabs(src *source, _ []interface{}) []finding {
	var out []finding
	for i, line := range src.raw {
		if j := strings.IndexByte(line, '\t'); j >= 0 {
			out = append(out, finding{Line: i + 1, Column: j + 1, Message: "Unexpected tab character."})
		}
	}
	return out
}

func maxLen(src *source, options []interface{}) []finding {
	limit := 80
	if len(options) > 0 {
		switch opt := options[0].(type) {
		case float64:
			limit = int(opt)
		case map[string]interface{}:
			if code, ok := opt["code"].(float64); ok {
				limit = int(code)
			}
		}
	}

	var out []finding
	for i, line := range src.raw {
		n := utf8.RuneCountInString(strings.TrimSuffix(line, "\r"))
		if n > limit {
			out = append(out, finding{
				Line:    i + 1,
				Column:  1,
				Message: fmt.Sprintf("This line has a length of %d. Maximum allowed is %d.", n, limit),
			})
		}
	}
	return out
}

var statementStart = regexp.MustCompile(`^(import\s|export\s+(const|let|var|default\s+[\w$.]+\s*$)|const\s|let\s|var\s|return\b|throw\s|break\b|continue\b)`)

// semi checks simple single-line statements only. A line that ends in an
// operator, an opening bracket or a comma continues on the next line, as
// does one followed by a line starting with a member access or operator.
func semi(src *source, options []interface{}) []finding {
	never := len(options) > 0 && options[0] == "never"

	var out []finding
	for i, line := range src.masked {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if never {
			if strings.HasSuffix(trimmed, ";") && !strings.HasPrefix(trimmed, "for") {
				out = append(out, finding{Line: i + 1, Column: strings.LastIndex(line, ";") + 1, Message: "Extra semicolon."})
			}
			continue
		}

		if !statementStart.MatchString(trimmed) || strings.HasSuffix(trimmed, ";") {
			continue
		}
		if strings.ContainsAny(trimmed[len(trimmed)-1:], "{[(,=+-*/%&|?:<>.!") {
			continue
		}
		if continuesOnNextLine(src.masked, i) {
			continue
		}
		out = append(out, finding{Line: i + 1, Column: len(strings.TrimRight(line, " \t\r")) + 1, Message: "Missing semicolon."})
	}
	return out
}

func continuesOnNextLine(lines []string, i int) bool {
	for j := i + 1; j < len(lines); j++ {
		next := strings.TrimSpace(lines[j])
		if next == "" {
			continue
		}
		return strings.ContainsAny(next[:1], ".?:+-*/%&|=<>,)]")
	}
	return false
}

func quotes(src *source, options []interface{}) []finding {
	want := byte('"')
	name := "doublequote"
	if len(options) > 0 && options[0] == "single" {
		want, name = '\'', "singlequote"
	}

	var out []finding
	for _, lit := range src.literals {
		if lit.Quote == want || lit.Quote == '`' {
			continue
		}
		if strings.IndexByte(lit.Body, want) >= 0 {
			continue
		}
		out = append(out, finding{Line: lit.Line, Column: lit.Column, Message: fmt.Sprintf("Strings must use %s.", name)})
	}
	return out
}
