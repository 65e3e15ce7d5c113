package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:     "compile <file.riot>...",
	Aliases: []string{"c"},
	Short:   "Lint and compile the TypeScript script blocks of components",
	Long: `Lint and compile the TypeScript script block of each component.

Without --out-dir the compiled JavaScript is printed to stdout. With
--out-dir, <name>.riot.js and <name>.riot.js.map are written there.

Examples:
  riotts compile src/todo.riot
  riotts compile src/*.riot --out-dir dist
  riotts compile src/todo.riot --out-dir dist --component`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

var (
	compileOutDir    string
	compileComponent bool
	compileNoMap     bool
)

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOutDir, "out-dir", "o", "", "write output files to this directory instead of stdout")
	compileCmd.Flags().BoolVar(&compileComponent, "component", false, "also write the component with the compiled script spliced in")
	compileCmd.Flags().BoolVar(&compileNoMap, "no-map", false, "do not write source maps")
}

func runCompile(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	for _, arg := range args {
		file, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		content, err := readComponent(file)
		if err != nil {
			return err
		}

		result, err := a.processor.Process(cmd.Context(), file, content)
		if err != nil {
			return err
		}

		if compileOutDir == "" {
			if result.Preprocessed {
				fmt.Fprint(a.out, result.Code)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s has no TypeScript script block\n", arg)
			}
			continue
		}

		if err := writeResult(compileOutDir, filepath.Dir(file), file, result, !compileNoMap, compileComponent); err != nil {
			return err
		}
	}

	return nil
}
