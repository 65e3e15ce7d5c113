package lint

import (
	"context"
	"sort"

	"github.com/conneroisu/riotts/internal/logging"
)

// Builtin evaluates the configured builtin rules in process.
type Builtin struct {
	cfg    *Config
	logger logging.Logger
}

// NewBuiltin creates the builtin engine. Configured rules it does not
// implement, such as plugin rules, are logged once and skipped.
func NewBuiltin(cfg *Config, logger logging.Logger) *Builtin {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("lint")

	for _, name := range cfg.Enabled() {
		if _, ok := builtinRules[name]; !ok {
			logger.Debug(context.Background(), "ignoring unsupported lint rule", "rule", name)
		}
	}
	return &Builtin{cfg: cfg, logger: logger}
}

// Lint implements Linter.
func (b *Builtin) Lint(ctx context.Context, text, filePath string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := newSource(text)
	result := Result{FilePath: filePath, Messages: []Message{}}

	for _, name := range b.cfg.Enabled() {
		check, ok := builtinRules[name]
		if !ok {
			continue
		}
		setting := b.cfg.Rules[name]
		for _, f := range check(src, setting.Options) {
			result.Messages = append(result.Messages, Message{
				RuleID:   name,
				Severity: setting.Severity,
				Message:  f.Message,
				Line:     f.Line,
				Column:   f.Column,
			})
			if setting.Severity == SeverityError {
				result.ErrorCount++
			} else {
				result.WarningCount++
			}
		}
	}

	sort.SliceStable(result.Messages, func(i, j int) bool {
		a, b := result.Messages[i], result.Messages[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	if len(result.Messages) > 0 {
		result.Source = text
	}
	return newReport([]Result{result}), nil
}
