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
)

var (
	quietFlag     bool
	outputFlag    string
	chunkSizeFlag int
	workersFlag   int
	formatsFlag   []string
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Analyze the codebase and generate the code map",
	Long: `Index analyzes your codebase (source code + documentation) and generates
a map of the relationships between code elements and the documentation
that describes them.

The indexer:
  - Parses source files (Python, Go) and documentation (Markdown)
  - Extracts classes, functions, methods, and document sections
  - Maps documentation mentions to the code elements they describe
  - Writes the map as token-budgeted chunks under .codeatlas/map/

Examples:
  # Index the current directory
  codeatlas index

  # Index with progress bars disabled
  codeatlas index --quiet

  # Override the output directory and chunk budget
  codeatlas index --output build/map --chunk-size 1500

  # Render mermaid and dot diagrams alongside the JSON map
  codeatlas index --format json,mermaid,dot
`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	indexCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory for the map (overrides config)")
	indexCmd.Flags().IntVar(&chunkSizeFlag, "chunk-size", 0, "Target tokens per relationship chunk (overrides config)")
	indexCmd.Flags().IntVar(&workersFlag, "workers", 0, "Concurrent analysis workers (overrides config)")
	indexCmd.Flags().StringSliceVar(&formatsFlag, "format", nil, "Output formats: json, mermaid, dot (overrides config)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt signals gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling indexing...")
		cancel()
	}()

	// Determine root directory
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	// Load configuration from .codeatlas/config.yml
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := applyIndexOverrides(cmd, cfg); err != nil {
		return err
	}

	logger := loggerFromContext(ctx)
	if quietFlag {
		logger.SetLevel(log.WarnLevel)
	}

	p := pipeline.New(rootDir, cfg,
		pipeline.WithLogger(logger),
		pipeline.WithProgress(NewCLIProgressReporter(quietFlag, logger)),
	)

	stats, err := p.Run(ctx)
	if err != nil {
		// Check if it was a cancellation
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	// Print summary (if not quiet, OnComplete already printed it)
	if quietFlag {
		fmt.Printf("Indexing complete: %d relationships in %.2fs\n",
			stats.Relationships, stats.Duration.Seconds())
	}

	return nil
}

// applyIndexOverrides layers flag values over the loaded configuration.
// Only flags the user actually set take effect, so config file values
// survive unrelated invocations.
func applyIndexOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = outputFlag
	}
	if cmd.Flags().Changed("chunk-size") {
		cfg.Output.ChunkSize = chunkSizeFlag
	}
	if cmd.Flags().Changed("workers") {
		cfg.Analysis.Workers = workersFlag
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Formats = formatsFlag
	}
	return config.Validate(cfg)
}
