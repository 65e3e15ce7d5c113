package cmd

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/riotts/internal/errors"
	"github.com/conneroisu/riotts/internal/scanner"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Compile every component under the scan paths",
	Long: `Scan components.scan_paths for .riot files and compile their TypeScript
script blocks in parallel, writing the output to build.out_dir.

A failure in one component never stops the others; the command fails if
any component failed.

Examples:
  riotts build
  riotts build --out-dir public/js --jobs 4`,
	RunE: runBuild,
}

var (
	buildOutDir string
	buildJobs   int
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOutDir, "out-dir", "o", "", "output directory (overrides build.out_dir)")
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "parallel compilations (overrides build.jobs)")
	AddFlagValidation(buildCmd, "jobs", ValidateJobs)
}

// buildSummary counts the outcome of a build.
type buildSummary struct {
	Compiled int
	Skipped  int
	Failed   int
	Duration time.Duration
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if buildOutDir != "" {
		a.cfg.Build.OutDir = buildOutDir
	}
	if buildJobs > 0 {
		a.cfg.Build.Jobs = buildJobs
	}

	s := scanner.NewComponentScanner(afero.NewOsFs(), a.cfg.Components.ExcludePatterns)
	files, err := s.ScanDirectories(a.cfg.Components.ScanPaths)
	if err != nil {
		return err
	}

	summary, collector := a.buildFiles(cmd.Context(), files)

	fmt.Fprintf(cmd.ErrOrStderr(), "Compiled %d, skipped %d, failed %d component(s) in %s\n",
		summary.Compiled, summary.Skipped, summary.Failed, summary.Duration.Round(time.Millisecond))

	if collector.HasErrors() {
		red := color.New(color.FgRed)
		if !colorEnabled() {
			red.DisableColor()
		}
		for _, file := range collector.Files() {
			failure, _ := collector.Get(file)
			a.logger.Debug(cmd.Context(), "component failed", "file", file, "context", errors.GetErrorContext(failure))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", red.Sprint("✖"), file, errors.FormatError(failure))
		}
		return fmt.Errorf("build failed for %d component(s)", collector.Count())
	}
	return nil
}

// buildFiles compiles files concurrently, bounded by the configured job
// count, and records per-file failures without cancelling the others.
func (a *app) buildFiles(ctx context.Context, files []scanner.ComponentFile) (buildSummary, *errors.ErrorCollector) {
	start := time.Now()
	collector := errors.NewErrorCollector()
	var compiled, skipped atomic.Int64

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.Build.Jobs > 0 {
		g.SetLimit(a.cfg.Build.Jobs)
	}

	for _, f := range files {
		file := f.Path
		g.Go(func() error {
			content, err := readComponent(file)
			if err != nil {
				collector.Add(file, err)
				return nil
			}

			result, err := a.processor.Process(gctx, file, content)
			if err != nil {
				collector.Add(file, err)
				return nil
			}
			if !result.Preprocessed {
				skipped.Add(1)
				return nil
			}

			if err := writeResult(a.cfg.Build.OutDir, cwd, file, result, a.cfg.Build.SourceMaps, a.cfg.Build.Components); err != nil {
				collector.Add(file, err)
				return nil
			}
			compiled.Add(1)
			a.logger.Debug(gctx, "compiled component", "file", file)
			return nil
		})
	}
	_ = g.Wait()

	return buildSummary{
		Compiled: int(compiled.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   collector.Count(),
		Duration: time.Since(start),
	}, collector
}
