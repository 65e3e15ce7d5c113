package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/riotts/internal/scanner"
	"github.com/conneroisu/riotts/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild components when they change",
	Long: `Build every component once, then watch the scan paths and recompile
components as they change.

A changed component is recompiled on its own. A change to any TypeScript
file, tsconfig or lint configuration rebuilds every component, reloading
the configuration files first.

Examples:
  riotts watch
  riotts watch --verbose`,
	RunE: runWatch,
}

var watchVerbose bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newAppWithConfig(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := scanner.NewComponentScanner(afero.NewOsFs(), cfg.Components.ExcludePatterns)
	w := &watchSession{cmd: cmd, app: a, scanner: s}

	if err := w.rebuildAll(ctx); err != nil {
		return err
	}

	fileWatcher, err := watcher.NewFileWatcher(cfg.Watch.Debounce, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.SourceFilter)
	fileWatcher.AddFilter(watcher.NoNodeModulesFilter)
	fileWatcher.AddFilter(watcher.NoGitFilter)
	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		return w.handle(ctx, events)
	})

	skip := func(path string) bool { return s.Excluded(filepath.Base(path)) }
	for _, path := range cfg.Components.ScanPaths {
		if err := fileWatcher.AddRecursive(path, skip); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %v for changes (Ctrl+C to stop)\n", cfg.Components.ScanPaths)
	<-ctx.Done()
	return nil
}

// watchSession serialises rebuilds triggered by change batches.
type watchSession struct {
	cmd     *cobra.Command
	app     *app
	scanner *scanner.ComponentScanner
	mu      sync.Mutex
}

func (w *watchSession) rebuildAll(ctx context.Context) error {
	files, err := w.scanner.ScanDirectories(w.app.cfg.Components.ScanPaths)
	if err != nil {
		return err
	}
	return w.build(ctx, files)
}

func (w *watchSession) build(ctx context.Context, files []scanner.ComponentFile) error {
	summary, collector := w.app.buildFiles(ctx, files)
	for _, file := range collector.Files() {
		failure, _ := collector.Get(file)
		fmt.Fprintf(w.cmd.ErrOrStderr(), "✖ %s: %v\n", file, failure)
	}
	fmt.Fprintf(w.cmd.ErrOrStderr(), "Compiled %d, failed %d component(s)\n", summary.Compiled, summary.Failed)
	return nil
}

func (w *watchSession) handle(ctx context.Context, events []watcher.ChangeEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if watchVerbose {
		for _, event := range events {
			fmt.Fprintf(w.cmd.ErrOrStderr(), "%s: %s\n", event.Type, event.Path)
		}
	}

	var changed []scanner.ComponentFile
	for _, event := range events {
		if !watcher.RiotFilter(event.Path) {
			// Typings, sibling modules or configuration changed
			return w.reload(ctx)
		}
		if event.Type == watcher.EventTypeDeleted || event.Type == watcher.EventTypeRenamed {
			w.scanner.Forget(event.Path)
			continue
		}
		if w.scanner.Excluded(event.Path) {
			continue
		}
		isNew, err := w.scanner.Changed(event.Path)
		if err != nil {
			w.app.logger.Warn(ctx, err, "cannot read changed component", "path", event.Path)
			continue
		}
		if isNew {
			file, err := w.scanner.ScanFile(event.Path)
			if err == nil {
				changed = append(changed, *file)
			}
		}
	}

	if len(changed) == 0 {
		return nil
	}
	return w.build(ctx, changed)
}

// reload re-reads the lint and compiler configuration and rebuilds all.
func (w *watchSession) reload(ctx context.Context) error {
	a, err := newAppWithConfig(w.cmd, w.app.cfg)
	if err != nil {
		return err
	}
	w.app = a
	return w.rebuildAll(ctx)
}
