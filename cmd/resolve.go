package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/riotts/internal/logging"
	"github.com/conneroisu/riotts/internal/resolver"
	"github.com/conneroisu/riotts/internal/tsconfig"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <module>",
	Short: "Show how an import of a component resolves",
	Long: `Resolve an import specifier the way the compiler does for a component
and print every step: the standard lookup first, then the fallback search
for .d.ts, .ts and .riot files in the component's directory.

Examples:
  riotts resolve ./todo-item --from src/todo.riot
  riotts resolve ./store --from src/app.riot --no-fallback`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var (
	resolveFrom       string
	resolveNoFallback bool
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveFrom, "from", "", "component file containing the import (required)")
	resolveCmd.Flags().BoolVar(&resolveNoFallback, "no-fallback", false, "use the standard lookup only")
	_ = resolveCmd.MarkFlagRequired("from")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	opts := preprocessorOptions(cfg).WithDefaults(cwd)

	from, err := filepath.Abs(resolveFrom)
	if err != nil {
		return err
	}
	containing := from + ".ts"
	root := filepath.Dir(from)

	fs := afero.NewOsFs()
	var compilerOpts tsconfig.CompilerOptions
	if tc, err := tsconfig.Load(fs, opts.TSConfigPath, opts.SourcePath); err == nil {
		compilerOpts = tc.CompilerOptions
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "tsconfig not loaded, using defaults: %v\n", err)
	}

	trace := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelInfo,
		Format: "text",
		Output: cmd.ErrOrStderr(),
	})
	r := resolver.New(fs, resolver.NewStandardLookup(fs, compilerOpts), resolver.WithTrace(trace))

	var (
		m  resolver.ResolvedModule
		ok bool
	)
	if resolveNoFallback || opts.DisableCustomResolver {
		m, ok = r.Standard().Lookup(args[0], containing)
	} else {
		m, ok = r.Resolve(args[0], containing, root)
	}

	if !ok {
		return fmt.Errorf("cannot find module %q from %s", args[0], resolveFrom)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s", m.ResolvedFileName, m.Extension)
	if m.IsExternalLibraryImport {
		fmt.Fprint(cmd.OutOrStdout(), "\texternal")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
