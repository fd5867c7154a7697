package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codeatlas-io/codeatlas/internal/config"
	"github.com/codeatlas-io/codeatlas/internal/pipeline"
)

var cleanQuietFlag bool

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the generated code map",
	Long: `Clean removes the generated map directory. The next 'codeatlas index'
run will rebuild the map from scratch.

The configuration file (.codeatlas/config.yml) is preserved.

Use cases:
  - Corrupted or stale map files
  - Want fresh output after changing chunk size or formats
  - Debugging indexing issues

Examples:
  # Remove the generated map
  codeatlas clean

  # Clean with minimal output
  codeatlas clean --quiet
`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanQuietFlag, "quiet", "q", false, "Suppress output messages")
}

func runClean(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := io.Writer(os.Stdout)
	if cleanQuietFlag {
		out = io.Discard
	}

	return cleanMap(pipeline.OutputPath(rootDir, cfg), out)
}

// cleanMap removes the map directory and reports what was deleted.
func cleanMap(mapDir string, out io.Writer) error {
	info, err := os.Stat(mapDir)
	if os.IsNotExist(err) {
		fmt.Fprintln(out, "No code map found for this project")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect map directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("map path %s is not a directory", mapDir)
	}

	// Calculate size before deletion
	sizeMB, fileCount := mapStats(mapDir)

	if err := os.RemoveAll(mapDir); err != nil {
		return fmt.Errorf("failed to remove map directory: %w", err)
	}

	if fileCount > 0 {
		fmt.Fprintf(out, "✓ Cleaned code map (%d files, ~%.1f MB)\n", fileCount, sizeMB)
	} else {
		fmt.Fprintln(out, "✓ Cleaned code map")
	}
	fmt.Fprintln(out, "Next 'codeatlas index' will rebuild the map from scratch")

	return nil
}

// mapStats totals the files under the map directory. Errors are
// ignored; the counts only feed the cleanup message.
func mapStats(mapDir string) (sizeMB float64, fileCount int) {
	filepath.WalkDir(mapDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		fileCount++
		if info, err := d.Info(); err == nil {
			sizeMB += float64(info.Size()) / (1024 * 1024)
		}
		return nil
	})
	return sizeMB, fileCount
}
