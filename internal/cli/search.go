package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeatlas-io/codeatlas/internal/config"
	"github.com/codeatlas-io/codeatlas/internal/graph"
	"github.com/codeatlas-io/codeatlas/internal/pipeline"
	"github.com/codeatlas-io/codeatlas/internal/search"
)

var (
	searchKindFlag  string
	searchLimitFlag int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the generated code map",
	Long: `Search runs a full-text query over the generated code map and prints
matching code elements and documentation sections.

Queries use bleve syntax: bare terms match any indexed field, and a
field prefix narrows the match (name:UserService, file_path:services,
element_type:class).

Examples:
  # Find anything mentioning authentication
  codeatlas search authentication

  # Only documentation sections
  codeatlas search "token refresh" --kind documentation

  # Exact element lookup with more results
  codeatlas search name:User --limit 50
`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchKindFlag, "kind", "k", "", "Filter results: code or documentation")
	searchCmd.Flags().IntVarP(&searchLimitFlag, "limit", "n", 15, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	switch searchKindFlag {
	case "", "code", "documentation":
	default:
		return fmt.Errorf("invalid kind: %s (must be 'code' or 'documentation')", searchKindFlag)
	}

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	mapDir := pipeline.OutputPath(rootDir, cfg)
	storage, err := graph.NewStorage(mapDir)
	if err != nil {
		return fmt.Errorf("failed to open map storage: %w", err)
	}

	data, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load code map: %w", err)
	}
	if data == nil {
		return fmt.Errorf("no code map found in %s; run 'codeatlas index' first", mapDir)
	}

	searcher, err := search.NewSearcher(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to build search index: %w", err)
	}
	defer searcher.Close()

	hits, err := searcher.Search(ctx, args[0], searchKindFlag, searchLimitFlag)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	renderHits(os.Stdout, args[0], hits)
	return nil
}

// renderHits prints search results in a compact, scannable form.
func renderHits(w io.Writer, query string, hits []*search.Hit) {
	if len(hits) == 0 {
		fmt.Fprintf(w, "No results for %q\n", query)
		return
	}

	fmt.Fprintf(w, "%d results for %q:\n\n", len(hits), query)
	for i, hit := range hits {
		header := hit.Name
		if hit.ElementType != "" {
			header = fmt.Sprintf("%s (%s)", hit.Name, hit.ElementType)
		}
		fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, hit.Kind, header)

		if hit.FilePath != "" {
			location := hit.FilePath
			if hit.LineStart > 0 {
				location = fmt.Sprintf("%s:%d", hit.FilePath, hit.LineStart)
			}
			fmt.Fprintf(w, "    %s\n", location)
		}
		for _, frag := range hit.Fragments {
			fmt.Fprintf(w, "    %s\n", stripHighlight(frag))
		}
		fmt.Fprintln(w)
	}
}

// stripHighlight removes the <em> markers bleve places around matched
// terms; terminals render them as noise.
func stripHighlight(s string) string {
	s = strings.ReplaceAll(s, "<em>", "")
	return strings.ReplaceAll(s, "</em>", "")
}
