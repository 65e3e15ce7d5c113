package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conneroisu/riotts/internal/component"
	"github.com/conneroisu/riotts/internal/config"
	"github.com/conneroisu/riotts/internal/errors"
	"github.com/conneroisu/riotts/internal/logging"
	"github.com/conneroisu/riotts/internal/preprocessor"
	"github.com/conneroisu/riotts/internal/validation"
)

// app bundles what the compiling commands share.
type app struct {
	cfg       *config.Config
	logger    logging.Logger
	registry  *component.Registry
	processor *component.Processor
	pre       *preprocessor.Preprocessor
	out       io.Writer
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

func colorEnabled() bool {
	return !noColor && !color.NoColor
}

func preprocessorOptions(cfg *config.Config) preprocessor.Options {
	return preprocessor.Options{
		ESLintConfigPath:      cfg.Lint.ConfigPath,
		RiotTypingsPath:       cfg.Preprocessor.RiotTypingsPath,
		AdditionalTypings:     cfg.Preprocessor.AdditionalTypings,
		SourcePath:            cfg.Preprocessor.SourcePath,
		TSConfigPath:          cfg.Preprocessor.TSConfigPath,
		DisableCustomResolver: cfg.Preprocessor.DisableCustomResolver,
		LogModuleResolution:   cfg.Preprocessor.LogModuleResolution,
		LintEngine:            cfg.Lint.Engine,
		ESLintCommand:         cfg.Lint.Command,
		TypeCheck:             cfg.Preprocessor.TypeCheck,
		TSCCommand:            cfg.Preprocessor.TSCCommand,
	}
}

// readComponent reads a .riot file named on the command line.
func readComponent(file string) (string, error) {
	if err := validation.ValidateFileExtension(file, []string{".riot"}); err != nil {
		return "", errors.ErrInvalidPath(file).WithContext("reason", err.Error())
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotFound, "reading component", err).WithLocation(file, 0, 0)
	}
	return string(content), nil
}

// newApp loads the configuration and registers the TypeScript preprocessor.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newAppWithConfig(cmd, cfg)
}

func newAppWithConfig(cmd *cobra.Command, cfg *config.Config) (*app, error) {
	logger := newLogger(cfg)
	registry := component.NewRegistry()

	pre, err := preprocessor.Init(registry.Register, preprocessorOptions(cfg),
		preprocessor.WithLogger(logger),
		preprocessor.WithReportWriter(cmd.OutOrStdout()),
		preprocessor.WithColor(colorEnabled()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize preprocessor: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		processor: component.NewProcessor(registry),
		pre:       pre,
		out:       cmd.OutOrStdout(),
	}, nil
}

// outputPaths returns where the compiled code, map and rewritten component
// of file are written below outDir. The path of file relative to base is
// kept; files outside base are written flat.
func outputPaths(outDir, base, file string) (code, sourceMap, riot string) {
	rel, err := filepath.Rel(base, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	stem := filepath.Join(outDir, rel)
	return stem + ".js", stem + ".js.map", stem
}

// writeResult writes a processed component below outDir.
func writeResult(outDir, base, file string, result *component.Result, sourceMaps, components bool) error {
	codePath, mapPath, riotPath := outputPaths(outDir, base, file)
	if err := os.MkdirAll(filepath.Dir(codePath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if result.Preprocessed {
		if err := os.WriteFile(codePath, []byte(result.Code), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", codePath, err)
		}
		if sourceMaps && result.Map != "" {
			if err := os.WriteFile(mapPath, []byte(result.Map), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", mapPath, err)
			}
		}
	}

	if components {
		if riotPath == file {
			return fmt.Errorf("refusing to overwrite source component %s", file)
		}
		if err := os.WriteFile(riotPath, []byte(result.Source), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", riotPath, err)
		}
	}
	return nil
}
