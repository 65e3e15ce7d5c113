// Package preprocessor adapts the lint gate and the TypeScript compiler into
// a script preprocessor for Riot components.
//
// Init resolves the options, loads the lint configuration and the project
// compiler configuration exactly once, and registers a handler for the
// ("javascript", "ts") pair. The handler lints each script block and only
// then compiles it; either stage failing aborts the component.
package preprocessor

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/conneroisu/riotts/internal/checker"
	"github.com/conneroisu/riotts/internal/compiler"
	"github.com/conneroisu/riotts/internal/component"
	"github.com/conneroisu/riotts/internal/errors"
	"github.com/conneroisu/riotts/internal/lint"
	"github.com/conneroisu/riotts/internal/logging"
	"github.com/conneroisu/riotts/internal/tsconfig"
)

// Registered language pair.
const (
	LanguageTag = component.LanguageJavaScript
	Extension   = "ts"
)

// RegisterFunc installs a preprocessor handler. component.Registry.Register
// satisfies it.
type RegisterFunc func(languageTag, ext string, handler component.Handler)

// Preprocessor holds the state shared by every handler invocation. It is
// read-only after Init.
type Preprocessor struct {
	opts     Options
	fs       afero.Fs
	logger   logging.Logger
	report   io.Writer
	color    bool
	cwd      string
	linter   lint.Linter
	compiler compiler.Interface
	tsconfig *tsconfig.Config
	stylish  *lint.Stylish
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithLinter replaces the linter built from the lint configuration. The lint
// configuration file is then not read.
func WithLinter(l lint.Linter) Option {
	return func(p *Preprocessor) { p.linter = l }
}

// WithCompiler replaces the TypeScript compiler.
func WithCompiler(c compiler.Interface) Option {
	return func(p *Preprocessor) { p.compiler = c }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Preprocessor) { p.logger = logger }
}

// WithFs sets the file system configuration files are read from.
func WithFs(fsys afero.Fs) Option {
	return func(p *Preprocessor) { p.fs = fsys }
}

// WithReportWriter sets where lint reports and diagnostics are printed.
func WithReportWriter(w io.Writer) Option {
	return func(p *Preprocessor) { p.report = w }
}

// WithColor enables coloured reports.
func WithColor(enabled bool) Option {
	return func(p *Preprocessor) { p.color = enabled }
}

// WithWorkingDir sets the directory the default paths are derived from.
func WithWorkingDir(dir string) Option {
	return func(p *Preprocessor) { p.cwd = dir }
}

// Init builds the preprocessor and registers its handler exactly once.
func Init(register RegisterFunc, opts Options, options ...Option) (*Preprocessor, error) {
	p := &Preprocessor{
		fs:     afero.NewOsFs(),
		logger: logging.NewNopLogger(),
		report: os.Stdout,
	}
	for _, opt := range options {
		opt(p)
	}
	p.logger = p.logger.WithComponent("preprocessor")

	if p.cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.WrapConfig(err, errors.ErrCodeConfigLoad, "determining working directory")
		}
		p.cwd = wd
	}
	p.opts = opts.WithDefaults(p.cwd)
	p.stylish = lint.NewStylish(p.color)

	if p.linter == nil {
		cfg, err := lint.LoadEngineConfig(p.fs, p.opts.LintEngine, p.opts.ESLintConfigPath)
		if err != nil {
			return nil, err
		}
		l, err := lint.New(p.opts.LintEngine, cfg,
			lint.WithLogger(p.logger),
			lint.WithCommand(p.opts.ESLintCommand),
		)
		if err != nil {
			return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "configuring linter")
		}
		p.linter = l
	}

	cfg, err := tsconfig.Load(p.fs, p.opts.TSConfigPath, p.opts.SourcePath)
	if err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigLoad, "loading tsconfig").
			WithLocation(p.opts.TSConfigPath, 0, 0)
	}
	p.tsconfig = cfg

	if p.compiler == nil {
		copts := []compiler.Option{
			compiler.WithFs(p.fs),
			compiler.WithLogger(p.logger),
			compiler.WithReportWriter(p.report),
			compiler.WithColor(p.color),
		}
		if p.opts.LogModuleResolution {
			copts = append(copts, compiler.WithResolutionTrace(p.logger))
		}
		if p.opts.TypeCheck {
			tsc, err := checker.NewTSC(p.opts.TSCCommand, checker.WithLogger(p.logger))
			if err != nil {
				return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "configuring type check")
			}
			copts = append(copts, compiler.WithChecker(tsc))
		}
		p.compiler = compiler.New(copts...)
	}

	p.logger.Debug(context.Background(), "preprocessor initialized",
		"source_path", p.opts.SourcePath,
		"tsconfig", p.opts.TSConfigPath,
		"lint_engine", p.opts.LintEngine,
		"type_check", p.opts.TypeCheck,
	)

	register(LanguageTag, Extension, p.Handle)
	return p, nil
}

// Options returns the resolved options.
func (p *Preprocessor) Options() Options {
	return p.opts
}

// Handle lints and compiles one script block of the component meta.File.
func (p *Preprocessor) Handle(ctx context.Context, source string, meta component.Meta) (*component.Output, error) {
	report, err := p.linter.Lint(ctx, lint.StripIndent(source), meta.File)
	if err != nil {
		return nil, errors.WrapInternal(err, errors.ErrCodeLinterCrashed, "linting component").
			WithLocation(meta.File, 0, 0)
	}
	if report.Failed() {
		_, _ = io.WriteString(p.report, p.stylish.Format(report.Results))
		return nil, errors.NewLintFailure(meta.File, report.ErrorCount, report.WarningCount)
	}

	result, err := p.compiler.Compile(ctx, compiler.Request{
		EntryFileName:         filepath.Base(meta.File) + ".ts",
		SourceText:            source,
		SearchRoot:            filepath.Dir(meta.File),
		Options:               p.tsconfig,
		DisableCustomResolver: p.opts.DisableCustomResolver,
		EntryFiles:            p.opts.Typings(),
	})
	if err != nil {
		return nil, err
	}
	if len(result.Diagnostics) > 0 {
		return nil, errors.NewCompileFailure(meta.File, result.Diagnostics)
	}

	return &component.Output{Code: result.Code, Map: result.Map}, nil
}
