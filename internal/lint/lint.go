// Package lint is the gate every component script passes before it is
// compiled.
//
// Two engines produce the same Report: the eslint engine, the default, runs an
// installed eslint binary over stdin and decodes its JSON output, and the
// builtin engine evaluates a set of line-oriented rules configured by an
// eslintrc-shaped JSON file. Any error or warning in a Report is fatal to the caller.
package lint

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/riotts/internal/errors"
	"github.com/conneroisu/riotts/internal/logging"
)

// Engine names.
const (
	EngineBuiltin = "builtin"
	EngineESLint  = "eslint"
)

// Rule severities, numbered as eslint numbers them.
const (
	SeverityOff   = 0
	SeverityWarn  = 1
	SeverityError = 2
)

// Message is one rule violation.
type Message struct {
	RuleID   string `json:"ruleId"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Fatal    bool   `json:"fatal,omitempty"`
}

// Result holds the messages for one linted file.
type Result struct {
	FilePath     string    `json:"filePath"`
	Messages     []Message `json:"messages"`
	ErrorCount   int       `json:"errorCount"`
	WarningCount int       `json:"warningCount"`
	Source       string    `json:"source,omitempty"`
}

// Report aggregates results and their counts.
type Report struct {
	Results      []Result
	ErrorCount   int
	WarningCount int
}

// Failed reports whether the gate rejects the linted text.
func (r *Report) Failed() bool {
	return r != nil && (r.ErrorCount > 0 || r.WarningCount > 0)
}

// newReport sums the per-result counts.
func newReport(results []Result) *Report {
	report := &Report{Results: results}
	for _, res := range results {
		report.ErrorCount += res.ErrorCount
		report.WarningCount += res.WarningCount
	}
	return report
}

// Linter lints one script buffer on behalf of the file it came from.
type Linter interface {
	Lint(ctx context.Context, source, filePath string) (*Report, error)
}

// Option configures a linter built by New.
type Option func(*settings)

type settings struct {
	logger  logging.Logger
	command string
	runner  Runner
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithCommand sets the eslint executable used by the eslint engine.
func WithCommand(command string) Option {
	return func(s *settings) { s.command = command }
}

// WithRunner replaces process execution for the eslint engine.
func WithRunner(runner Runner) Option {
	return func(s *settings) { s.runner = runner }
}

// New builds the linter for engine using cfg, which is loaded once by the
// caller and shared by every Lint call.
func New(engine string, cfg *Config, opts ...Option) (Linter, error) {
	s := &settings{
		logger:  logging.NewNopLogger(),
		command: "eslint",
		runner:  execRunner,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg == nil {
		cfg = &Config{}
	}

	switch strings.ToLower(engine) {
	case EngineBuiltin:
		return NewBuiltin(cfg, s.logger), nil
	case "", EngineESLint:
		return NewESLint(cfg.Path, s.command, s.runner, s.logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown lint engine %q", engine)).
			WithContext("engine", engine)
	}
}
