package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/conneroisu/riotts/internal/errors"
	"github.com/conneroisu/riotts/internal/logging"
	"github.com/conneroisu/riotts/internal/validation"
)

// allowedCommands are the executables the eslint engine may start.
var allowedCommands = map[string]bool{
	"eslint":     true,
	"eslint.cmd": true,
	"npx":        true,
}

// Runner runs name with args, feeding stdin, and returns standard output.
// A non-nil error with output still carries a usable report: eslint exits
// with status 1 whenever it finds problems.
type Runner func(ctx context.Context, name string, args []string, stdin string) ([]byte, error)

func execRunner(ctx context.Context, name string, args []string, stdin string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// ESLint runs an external eslint over stdin.
type ESLint struct {
	command    string
	prefix     []string
	configPath string
	runner     Runner
	logger     logging.Logger
}

// NewESLint validates command and configPath and returns the engine.
// A command of "npx" runs "npx eslint".
func NewESLint(configPath, command string, runner Runner, logger logging.Logger) (*ESLint, error) {
	if err := validation.ValidateCommand(command, allowedCommands); err != nil {
		return nil, errors.ErrCommandInjection(command).WithContext("reason", err.Error())
	}
	if configPath != "" {
		if err := validation.ValidatePath(configPath); err != nil {
			return nil, errors.ErrInvalidPath(configPath).WithContext("reason", err.Error())
		}
	}
	if runner == nil {
		runner = execRunner
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	e := &ESLint{
		command:    command,
		configPath: configPath,
		runner:     runner,
		logger:     logger.WithComponent("eslint"),
	}
	if strings.HasPrefix(filepath.Base(command), "npx") {
		e.prefix = []string{"eslint"}
	}
	return e, nil
}

// flatConfigNames are the file names eslint reads as flat config. The
// eslintrc-only "--no-eslintrc" flag is rejected when one is in use.
var flatConfigNames = map[string]bool{
	"eslint.config.js":  true,
	"eslint.config.mjs": true,
	"eslint.config.cjs": true,
	"eslint.config.ts":  true,
	"eslint.config.mts": true,
	"eslint.config.cts": true,
}

// IsFlatConfig reports whether path names a flat config file.
func IsFlatConfig(path string) bool {
	return flatConfigNames[filepath.Base(path)]
}

// Args returns the arguments passed to the eslint process for filePath.
// An eslintrc file is passed with "--no-eslintrc", which needs eslint 8 or
// eslint 9 run with ESLINT_USE_FLAT_CONFIG=false; a flat config is passed
// with "-c" alone.
func (e *ESLint) Args(filePath string) []string {
	args := append([]string{}, e.prefix...)
	args = append(args, "--stdin", "--stdin-filename", filePath, "--format", "json")
	switch {
	case e.configPath == "":
	case IsFlatConfig(e.configPath):
		args = append(args, "-c", e.configPath)
	default:
		args = append(args, "--no-eslintrc", "-c", e.configPath)
	}
	return args
}

// Lint implements Linter.
func (e *ESLint) Lint(ctx context.Context, text, filePath string) (*Report, error) {
	if err := validation.ValidateArgument(filePath); err != nil {
		return nil, errors.ErrInvalidPath(filePath).WithContext("reason", err.Error())
	}

	args := e.Args(filePath)
	e.logger.Debug(ctx, "running eslint", "command", e.command, "args", args)

	out, runErr := e.runner(ctx, e.command, args, text)
	if len(bytes.TrimSpace(out)) == 0 {
		if runErr == nil {
			runErr = fmt.Errorf("no output")
		}
		return nil, errors.NewInternalError(errors.ErrCodeLinterCrashed, "eslint did not produce a report", runErr).
			WithLocation(filePath, 0, 0)
	}

	var results []Result
	if err := json.Unmarshal(out, &results); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeLinterCrashed, "decoding eslint report", err).
			WithLocation(filePath, 0, 0)
	}
	return newReport(results), nil
}
