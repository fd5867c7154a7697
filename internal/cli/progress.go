package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"github.com/codeatlas-io/codeatlas/internal/pipeline"
)

// CLIProgressReporter implements progress reporting with progress bars.
type CLIProgressReporter struct {
	quiet          bool
	logger         *log.Logger
	fileBar        *progressbar.ProgressBar
	startTime      time.Time
	totalFiles     int
	processedFiles int
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool, logger *log.Logger) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:     quiet,
		logger:    logger,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	c.logger.Info("Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(codeFiles, docFiles int) {
	if c.quiet {
		return
	}
	c.logger.Info(fmt.Sprintf("Processing %d code files and %d documentation files", codeFiles, docFiles))
	fmt.Println()
}

func (c *CLIProgressReporter) OnExtractionStart(totalFiles int) {
	if c.quiet {
		return
	}
	c.totalFiles = totalFiles
	c.processedFiles = 0

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("Analyzing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(path string) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.processedFiles++
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnMappingComplete(relationships int) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}
	fmt.Printf("✓ Mapped %s relationships\n", formatNumber(relationships))
}

func (c *CLIProgressReporter) OnWritingOutput() {
	if c.quiet {
		return
	}
	c.logger.Info("Writing map files...")
}

func (c *CLIProgressReporter) OnComplete(stats *pipeline.Stats) {
	if c.quiet {
		return
	}

	fmt.Println()
	fmt.Printf("✓ Indexing complete: %s relationships in %.1fs\n",
		formatNumber(stats.Relationships),
		stats.Duration.Seconds())
	fmt.Printf("  Code elements: %s\n", formatNumber(stats.CodeElements))
	fmt.Printf("  Doc elements:  %s\n", formatNumber(stats.DocElements))
	fmt.Printf("  Map chunks:    %s\n", formatNumber(stats.Chunks))
	if stats.FilesFailed > 0 {
		fmt.Printf("  Failed files:  %d (see log for details)\n", stats.FilesFailed)
	}
}

// formatNumber renders n with thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	// Simple implementation for thousands/millions
	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
