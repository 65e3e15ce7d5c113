package lint

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Stylish formats results the way eslint's default formatter does: one
// block per file with aligned columns and a summary line.
type Stylish struct {
	underline *color.Color
	dim       *color.Color
	errColor  *color.Color
	warnColor *color.Color
	bold      *color.Color
}

// NewStylish creates a formatter. Colour is emitted only when enabled.
func NewStylish(enabled bool) *Stylish {
	s := &Stylish{
		underline: color.New(color.Underline),
		dim:       color.New(color.Faint),
		errColor:  color.New(color.FgRed),
		warnColor: color.New(color.FgYellow),
		bold:      color.New(color.Bold),
	}
	for _, c := range []*color.Color{s.underline, s.dim, s.errColor, s.warnColor, s.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// Format renders results. Results without messages are skipped and an
// empty string is returned when nothing was reported.
func (s *Stylish) Format(results []Result) string {
	var b strings.Builder
	errorCount, warningCount := 0, 0

	for _, res := range results {
		if len(res.Messages) == 0 {
			continue
		}
		errorCount += res.ErrorCount
		warningCount += res.WarningCount

		rows := make([][4]string, 0, len(res.Messages))
		var widths [4]int
		for _, m := range res.Messages {
			kind := "warning"
			if m.Severity == SeverityError || m.Fatal {
				kind = "error"
			}
			row := [4]string{fmt.Sprintf("%d:%d", m.Line, m.Column), kind, strings.TrimSuffix(m.Message, "."), m.RuleID}
			for i, cell := range row {
				if w := runewidth.StringWidth(cell); w > widths[i] {
					widths[i] = w
				}
			}
			rows = append(rows, row)
		}

		b.WriteString("\n")
		b.WriteString(s.underline.Sprint(res.FilePath))
		b.WriteString("\n")
		for _, row := range rows {
			kind := s.warnColor
			if row[1] == "error" {
				kind = s.errColor
			}
			fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
				s.dim.Sprint(runewidth.FillRight(row[0], widths[0])),
				kind.Sprint(runewidth.FillRight(row[1], widths[1])),
				runewidth.FillRight(row[2], widths[2]),
				s.dim.Sprint(row[3]),
			)
		}
	}

	total := errorCount + warningCount
	if total == 0 {
		return ""
	}

	summary := s.warnColor
	if errorCount > 0 {
		summary = s.errColor
	}
	b.WriteString("\n")
	b.WriteString(s.bold.Sprint(summary.Sprintf("✖ %d %s (%d %s, %d %s)",
		total, plural(total, "problem"),
		errorCount, plural(errorCount, "error"),
		warningCount, plural(warningCount, "warning"),
	)))
	b.WriteString("\n")
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
