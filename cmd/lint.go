package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/riotts/internal/component"
	"github.com/conneroisu/riotts/internal/lint"
	"github.com/conneroisu/riotts/internal/preprocessor"
)

var lintCmd = &cobra.Command{
	Use:   "lint <file.riot>...",
	Short: "Lint the TypeScript script blocks of components",
	Long: `Run only the lint gate over the TypeScript script block of each
component and print a report. The command fails on any error or warning.

Examples:
  riotts lint src/todo.riot
  riotts lint src/*.riot --engine builtin`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLint,
}

var lintEngine string

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVar(&lintEngine, "engine", "", "lint engine, eslint or builtin (overrides lint.engine)")
	AddFlagValidation(lintCmd, "engine", ValidateEngine)
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if lintEngine != "" {
		cfg.Lint.Engine = lintEngine
	}
	logger := newLogger(cfg)

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	opts := preprocessorOptions(cfg).WithDefaults(cwd)

	lintCfg, err := lint.LoadEngineConfig(afero.NewOsFs(), opts.LintEngine, opts.ESLintConfigPath)
	if err != nil {
		return err
	}
	linter, err := lint.New(opts.LintEngine, lintCfg,
		lint.WithLogger(logger),
		lint.WithCommand(opts.ESLintCommand),
	)
	if err != nil {
		return err
	}

	var results []lint.Result
	errorCount, warningCount := 0, 0

	for _, arg := range args {
		file, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		content, err := readComponent(file)
		if err != nil {
			return err
		}
		scripts, err := component.Parse(content)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		for _, script := range scripts {
			if script.Lang != preprocessor.Extension {
				continue
			}
			report, err := linter.Lint(cmd.Context(), lint.StripIndent(script.Content), file)
			if err != nil {
				return err
			}
			results = append(results, report.Results...)
			errorCount += report.ErrorCount
			warningCount += report.WarningCount
		}
	}

	if errorCount > 0 || warningCount > 0 {
		fmt.Fprint(cmd.OutOrStdout(), lint.NewStylish(colorEnabled()).Format(results))
		return fmt.Errorf("linting reports %d errors and %d warnings", errorCount, warningCount)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d component(s) passed lint\n", len(args))
	return nil
}
