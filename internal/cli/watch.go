package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/codeatlas-io/codeatlas/internal/config"
	"github.com/codeatlas-io/codeatlas/internal/pipeline"
	"github.com/codeatlas-io/codeatlas/internal/watcher"
)

var watchQuietFlag bool

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for file changes and rebuild the code map",
	Long: `Watch performs an initial indexing run, then monitors the source tree
and rebuilds the code map whenever watched files change.

Change bursts are debounced, so an editor save storm or a branch switch
triggers a single rebuild. Analysis results for unchanged files are
served from an in-memory cache across rebuilds. The generated
.codeatlas/ directory is never watched.

Examples:
  # Watch the current directory
  codeatlas watch

  # Watch with progress bars disabled
  codeatlas watch --quiet
`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVarP(&watchQuietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt signals gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Stopping watch...")
		cancel()
	}()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := loggerFromContext(ctx)
	if watchQuietFlag {
		logger.SetLevel(log.WarnLevel)
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithProgress(NewCLIProgressReporter(watchQuietFlag, logger)),
	}
	if cfg.Analysis.CacheSize > 0 {
		cache, err := pipeline.NewCache(cfg.Analysis.CacheSize)
		if err != nil {
			return fmt.Errorf("failed to create analysis cache: %w", err)
		}
		opts = append(opts, pipeline.WithCache(cache))
	}

	// One pipeline across runs so unchanged files hit the analysis cache.
	p := pipeline.New(rootDir, cfg, opts...)

	reindex := func(files []string) {
		logger.Info("change detected", "files", len(files))
		if _, err := p.Run(ctx); err != nil {
			if ctx.Err() == nil {
				logger.Error("reindex failed", "error", err)
			}
		}
	}

	w, err := watcher.New(rootDir, pipeline.WatchExtensions(cfg), cfg.Paths.Exclude,
		watcher.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	// Pause before the initial run: changes that land mid-run accumulate
	// and Resume delivers them, so nothing slips between index and watch.
	w.Pause()
	if err := w.Start(ctx, reindex); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	stats, err := p.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("initial indexing failed: %w", err)
	}
	if watchQuietFlag {
		fmt.Printf("Initial indexing complete: %d relationships in %.2fs\n",
			stats.Relationships, stats.Duration.Seconds())
	}

	logger.Info("watching for changes", "root", rootDir)
	w.Resume()

	<-ctx.Done()
	logger.Info("watch stopped")
	return nil
}
