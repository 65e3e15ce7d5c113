// Package compiler compiles one component script from TypeScript to
// JavaScript.
//
// A Compiler builds a program rooted at the ambient typings, any additional
// typings and the virtual entry file, runs it through esbuild with every file
// access routed through an in-memory compilation host, and returns the
// diagnostics of the pre-emit and emit phases together with the compiled code
// and source map of the entry.
//
// The program build only proves the entry parses and that its imports
// resolve. The entry itself is emitted by a separate transform so that its
// module syntax, "export default" included, is kept as written. An optional
// checker adds type diagnostics to the pre-emit phase.
package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"

	"github.com/conneroisu/riotts/internal/checker"
	"github.com/conneroisu/riotts/internal/errors"
	"github.com/conneroisu/riotts/internal/host"
	"github.com/conneroisu/riotts/internal/logging"
	"github.com/conneroisu/riotts/internal/resolver"
	"github.com/conneroisu/riotts/internal/tsconfig"
)

// Request describes one compilation.
type Request struct {
	// EntryFileName is the name of the virtual source, e.g. "todo.riot.ts".
	EntryFileName string
	// SourceText is the script buffer compiled as the entry.
	SourceText string
	// SearchRoot is the directory of the component under compilation.
	SearchRoot string
	// Options are the project compiler options, shared across calls.
	Options *tsconfig.Config
	// DisableCustomResolver turns off the fallback candidate search.
	DisableCustomResolver bool
	// EntryFiles are the program roots compiled before the entry, in order:
	// ambient typings first, then additional typings.
	EntryFiles []string
}

// Result is the outcome of a compilation. Code and Map are only meaningful
// when Diagnostics is empty.
type Result struct {
	Diagnostics []errors.Diagnostic
	Code        string
	Map         string
}

// Interface is implemented by Compiler and by test doubles.
type Interface interface {
	Compile(ctx context.Context, req Request) (*Result, error)
}

// Compiler orchestrates program construction, emission and diagnostics.
type Compiler struct {
	fs      afero.Fs
	logger  logging.Logger
	report  io.Writer
	color   bool
	trace   logging.Logger
	checker checker.Checker
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithFs sets the file system read by the host. Defaults to the OS.
func WithFs(fsys afero.Fs) Option {
	return func(c *Compiler) { c.fs = fsys }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Compiler) { c.logger = logger.WithComponent("compiler") }
}

// WithReportWriter sets where formatted diagnostics are written.
func WithReportWriter(w io.Writer) Option {
	return func(c *Compiler) { c.report = w }
}

// WithColor enables ANSI colour in formatted diagnostics.
func WithColor(enabled bool) Option {
	return func(c *Compiler) { c.color = enabled }
}

// WithResolutionTrace logs every module resolution step.
func WithResolutionTrace(logger logging.Logger) Option {
	return func(c *Compiler) { c.trace = logger }
}

// WithChecker type-checks every program that builds without errors.
func WithChecker(ch checker.Checker) Option {
	return func(c *Compiler) { c.checker = ch }
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		fs:     afero.NewOsFs(),
		logger: logging.NewNopLogger(),
		report: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds and emits the program for req. Diagnostics are returned in
// the result, never as an error; the error is reserved for unusable requests.
func (c *Compiler) Compile(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.EntryFileName == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, "entry file name is required")
	}

	root, err := absRoot(req.SearchRoot)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "resolving search root")
	}

	op := logging.StartOperation(c.logger, "compile")

	var compilerOpts tsconfig.CompilerOptions
	if req.Options != nil {
		compilerOpts = req.Options.CompilerOptions
	}

	var resolverOpts []resolver.Option
	if c.trace != nil {
		resolverOpts = append(resolverOpts, resolver.WithTrace(c.trace))
	}
	r := resolver.New(c.fs, resolver.NewStandardLookup(c.fs, compilerOpts), resolverOpts...)

	h := host.New(c.fs, r, host.Config{
		EntryFileName:         req.EntryFileName,
		SourceText:            req.SourceText,
		SearchRoot:            root,
		DisableCustomResolver: req.DisableCustomResolver,
	})

	entryPoints := make([]string, 0, len(req.EntryFiles)+1)
	entryPoints = append(entryPoints, req.EntryFiles...)
	entryPoints = append(entryPoints, h.EntryPath())

	built := api.Build(buildOptions(req, root, entryPoints, hostPlugin(h)))

	messages := make([]reported, 0, len(built.Errors)+len(built.Warnings))
	for _, m := range built.Errors {
		messages = append(messages, reported{msg: m, severity: errors.SeverityError, phase: errors.PhasePreEmit})
	}
	for _, m := range built.Warnings {
		messages = append(messages, reported{msg: m, severity: errors.SeverityWarning, phase: errors.PhasePreEmit})
	}

	if len(built.Errors) == 0 && c.checker != nil {
		checked, err := c.typeCheck(ctx, req, root)
		if err != nil {
			op.EndWithError(ctx, err)
			return nil, err
		}
		messages = append(messages, checked...)
	}

	if len(built.Errors) == 0 {
		messages = append(messages, emit(h, api.Transform(req.SourceText, transformOptions(req, h.EntryPath())))...)
	}

	result := &Result{Diagnostics: make([]errors.Diagnostic, 0, len(messages))}
	for _, m := range messages {
		result.Diagnostics = append(result.Diagnostics, m.diagnostic())
	}

	code, sourceMap, _, _ := h.Output()
	result.Code = code
	result.Map = sourceMap

	if len(result.Diagnostics) > 0 {
		c.writeReport(messages)
		op.EndWithError(ctx, fmt.Errorf("%d diagnostics", len(result.Diagnostics)))
	} else {
		op.End(ctx)
	}

	return result, nil
}

func (c *Compiler) typeCheck(ctx context.Context, req Request, root string) ([]reported, error) {
	checkReq := checker.Request{
		EntryFileName: req.EntryFileName,
		SourceText:    req.SourceText,
		SearchRoot:    root,
		EntryFiles:    req.EntryFiles,
	}
	if req.Options != nil {
		checkReq.TSConfigPath = req.Options.Path
	}

	diagnostics, err := c.checker.Check(ctx, checkReq)
	if err != nil {
		return nil, err
	}

	out := make([]reported, 0, len(diagnostics))
	for _, d := range diagnostics {
		msg := api.Message{Text: d.Message}
		if d.File != "" {
			msg.Location = &api.Location{
				File:     d.File,
				Line:     d.Line,
				Column:   d.Column,
				Length:   d.Length,
				LineText: d.LineText,
			}
		}
		for _, n := range d.Notes {
			msg.Notes = append(msg.Notes, api.Note{Text: n})
		}
		out = append(out, reported{msg: msg, severity: d.Severity, phase: errors.PhasePreEmit, origin: d.Origin})
	}
	return out, nil
}

// emit hands the transformed entry to the host and reports what the host
// could not find for it. The code references its map the way an external
// source map build does.
func emit(h *host.Host, res api.TransformResult) []reported {
	var out []reported
	for _, m := range res.Errors {
		out = append(out, reported{msg: m, severity: errors.SeverityError, phase: errors.PhaseEmit})
	}
	if len(res.Errors) > 0 {
		return out
	}

	stem := strings.TrimSuffix(h.EntryPath(), resolver.ExtensionOf(h.EntryPath()))
	code := string(res.Code)
	if len(res.Map) > 0 {
		h.WriteFile(stem+host.MapSuffix, string(res.Map))
		code += "//# sourceMappingURL=" + filepath.Base(stem) + host.MapSuffix + "\n"
	}
	h.WriteFile(stem+host.CodeSuffix, code)

	_, sourceMap, hasCode, hasMap := h.Output()
	if !hasCode {
		out = append(out, emitError(fmt.Sprintf("no compiled output was emitted for %s", h.EntryPath())))
	}
	if hasMap && !json.Valid([]byte(sourceMap)) {
		out = append(out, emitError(fmt.Sprintf("emitted source map for %s is not valid JSON", h.EntryPath())))
	}
	return out
}

func emitError(text string) reported {
	return reported{
		msg:      api.Message{Text: text},
		severity: errors.SeverityError,
		phase:    errors.PhaseEmit,
	}
}

// reported pairs a compiler message with the severity and phase it was
// produced in, so it can be both formatted and returned as a Diagnostic.
type reported struct {
	msg      api.Message
	severity errors.Severity
	phase    errors.Phase
	origin   string
}

func (r reported) diagnostic() errors.Diagnostic {
	d := errors.Diagnostic{
		Severity: r.severity,
		Phase:    r.phase,
		Message:  r.msg.Text,
	}

	switch {
	case r.origin != "":
		d.Origin = r.origin
	case r.phase == errors.PhaseEmit:
		d.Origin = "emit"
	case r.msg.PluginName == pluginName:
		d.Origin = "resolve"
	default:
		d.Origin = "parse"
	}

	if loc := r.msg.Location; loc != nil {
		d.File = loc.File
		d.Line = loc.Line
		d.Column = loc.Column
		d.Length = loc.Length
		d.LineText = loc.LineText
	}
	for _, n := range r.msg.Notes {
		d.Notes = append(d.Notes, n.Text)
	}
	return d
}

func (c *Compiler) writeReport(messages []reported) {
	if c.report == nil {
		return
	}

	var errs, warns []api.Message
	for _, m := range messages {
		if m.severity == errors.SeverityError {
			errs = append(errs, m.msg)
		} else {
			warns = append(warns, m.msg)
		}
	}

	var b strings.Builder
	for _, s := range api.FormatMessages(errs, api.FormatMessagesOptions{Kind: api.ErrorMessage, Color: c.color, TerminalWidth: 100}) {
		b.WriteString(s)
	}
	for _, s := range api.FormatMessages(warns, api.FormatMessagesOptions{Kind: api.WarningMessage, Color: c.color, TerminalWidth: 100}) {
		b.WriteString(s)
	}
	_, _ = io.WriteString(c.report, b.String())
}
