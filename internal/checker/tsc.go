package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/riotts/internal/errors"
	"github.com/conneroisu/riotts/internal/logging"
	"github.com/conneroisu/riotts/internal/validation"
)

// allowedCommands are the executables the checker may start.
var allowedCommands = map[string]bool{
	"tsc":     true,
	"tsc.cmd": true,
	"npx":     true,
}

// tempPrefix marks the files written next to the component for one check.
const tempPrefix = ".riotts-check-"

var (
	locatedLine = regexp.MustCompile(`^(.+)\((\d+),(\d+)\): (error|warning) (TS\d+): (.*)$`)
	globalLine  = regexp.MustCompile(`^(error|warning) (TS\d+): (.*)$`)
)

// Runner runs name with args in dir and returns its standard output. tsc
// exits non-zero whenever it reports diagnostics, so output accompanying an
// error is still parsed.
type Runner func(ctx context.Context, dir, name string, args []string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// TSC checks entries with an external tsc.
type TSC struct {
	fs      afero.Fs
	command string
	prefix  []string
	runner  Runner
	logger  logging.Logger
}

// Option configures a TSC.
type Option func(*TSC)

// WithFs sets where the check files are written. They must be visible to
// the tsc process, so anything but the OS file system is for tests.
func WithFs(fsys afero.Fs) Option {
	return func(t *TSC) { t.fs = fsys }
}

// WithRunner replaces process execution.
func WithRunner(runner Runner) Option {
	return func(t *TSC) { t.runner = runner }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(t *TSC) { t.logger = logger }
}

// NewTSC validates command and returns the checker. A command of "npx"
// runs "npx tsc".
func NewTSC(command string, opts ...Option) (*TSC, error) {
	if command == "" {
		command = "tsc"
	}
	if err := validation.ValidateCommand(command, allowedCommands); err != nil {
		return nil, errors.ErrCommandInjection(command).WithContext("reason", err.Error())
	}

	t := &TSC{
		fs:      afero.NewOsFs(),
		command: command,
		runner:  execRunner,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithComponent("tsc")
	if strings.HasPrefix(filepath.Base(command), "npx") {
		t.prefix = []string{"tsc"}
	}
	return t, nil
}

// Args returns the arguments passed to the tsc process for a project file.
func (t *TSC) Args(project string) []string {
	args := append([]string{}, t.prefix...)
	return append(args, "--noEmit", "--pretty", "false", "-p", project)
}

// Check writes the entry and a project file extending the project config
// next to the component, runs tsc, and removes both files again.
func (t *TSC) Check(ctx context.Context, req Request) ([]errors.Diagnostic, error) {
	if req.EntryFileName == "" || !filepath.IsAbs(req.SearchRoot) {
		return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, "type check needs an entry name and an absolute search root")
	}

	base := filepath.Base(req.EntryFileName)
	entry := filepath.Join(req.SearchRoot, tempPrefix+base)
	project := filepath.Join(req.SearchRoot, tempPrefix+base+".json")

	projectJSON, err := projectFile(req, entry)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeCheckerCrashed, "rendering check project", err)
	}
	if err := afero.WriteFile(t.fs, entry, []byte(req.SourceText), 0o644); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeCheckerCrashed, "writing check entry", err).WithLocation(entry, 0, 0)
	}
	defer func() { _ = t.fs.Remove(entry) }()
	if err := afero.WriteFile(t.fs, project, projectJSON, 0o644); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeCheckerCrashed, "writing check project", err).WithLocation(project, 0, 0)
	}
	defer func() { _ = t.fs.Remove(project) }()

	args := t.Args(project)
	t.logger.Debug(ctx, "running tsc", "command", t.command, "args", args)

	out, runErr := t.runner(ctx, req.SearchRoot, t.command, args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	diagnostics := Parse(string(out), req.SearchRoot, entry, req.EntryFileName, req.SourceText)
	if runErr != nil && len(diagnostics) == 0 {
		return nil, errors.NewInternalError(errors.ErrCodeCheckerCrashed, "tsc did not produce diagnostics", runErr).
			WithLocation(req.EntryFileName, 0, 0)
	}
	return diagnostics, nil
}

func projectFile(req Request, entry string) ([]byte, error) {
	files := make([]string, 0, len(req.EntryFiles)+1)
	for _, f := range req.EntryFiles {
		if !filepath.IsAbs(f) {
			if abs, err := filepath.Abs(f); err == nil {
				f = abs
			}
		}
		files = append(files, filepath.ToSlash(f))
	}
	files = append(files, filepath.ToSlash(entry))

	doc := map[string]interface{}{
		"compilerOptions": map[string]interface{}{"noEmit": true},
		"files":           files,
		"include":         []string{},
	}
	if req.TSConfigPath != "" {
		doc["extends"] = filepath.ToSlash(req.TSConfigPath)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Parse reads "--pretty false" tsc output. Paths are relative to dir;
// diagnostics in entry are reported against entryName with the line text
// taken from source. Indented lines continue the previous message as notes.
func Parse(output, dir, entry, entryName, source string) []errors.Diagnostic {
	var (
		diagnostics []errors.Diagnostic
		sourceLines = strings.Split(source, "\n")
	)

	for _, line := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := locatedLine.FindStringSubmatch(line); m != nil {
			d := errors.Diagnostic{
				Severity: severityOf(m[4]),
				Phase:    errors.PhasePreEmit,
				Origin:   Origin,
				File:     m[1],
				Message:  m[6] + " [" + m[5] + "]",
			}
			d.Line, _ = strconv.Atoi(m[2])
			col, _ := strconv.Atoi(m[3])
			d.Column = col - 1

			path := m[1]
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, filepath.FromSlash(path))
			}
			if filepath.Clean(path) == filepath.Clean(entry) {
				d.File = entryName
				if d.Line >= 1 && d.Line <= len(sourceLines) {
					d.LineText = strings.TrimRight(sourceLines[d.Line-1], "\r")
				}
			}
			diagnostics = append(diagnostics, d)
			continue
		}

		if m := globalLine.FindStringSubmatch(line); m != nil {
			diagnostics = append(diagnostics, errors.Diagnostic{
				Severity: severityOf(m[1]),
				Phase:    errors.PhasePreEmit,
				Origin:   Origin,
				Message:  m[3] + " [" + m[2] + "]",
			})
			continue
		}

		if n := len(diagnostics); n > 0 && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			diagnostics[n-1].Notes = append(diagnostics[n-1].Notes, strings.TrimSpace(line))
		}
	}
	return diagnostics
}

func severityOf(s string) errors.Severity {
	if s == "warning" {
		return errors.SeverityWarning
	}
	return errors.SeverityError
}
