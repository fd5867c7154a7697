// Package search provides full-text keyword search over the serialized map.
// The index is in-memory and rebuilt from the graph file; it is a read path
// only and never feeds back into analysis.
package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/codeatlas-io/codeatlas/internal/graph"
)

// Hit is one scored search result with its map location.
type Hit struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"` // "code" or "documentation"
	Name        string   `json:"name"`
	ElementType string   `json:"element_type,omitempty"`
	FilePath    string   `json:"file_path,omitempty"`
	LineStart   int      `json:"line_start,omitempty"`
	Score       float64  `json:"score"`
	Fragments   []string `json:"fragments,omitempty"` // matching snippets with <em> tags
}

// Searcher defines full-text search over indexed map nodes.
type Searcher interface {
	// Search executes a keyword query. kind narrows results to "code" or
	// "documentation" when non-empty. limit caps returned hits.
	Search(ctx context.Context, queryStr, kind string, limit int) ([]*Hit, error)

	// Reindex replaces the index contents with the given graph.
	Reindex(ctx context.Context, data *graph.Data) error

	// Close releases resources held by the searcher.
	Close() error
}

// searcher implements Searcher backed by an in-memory bleve index.
type searcher struct {
	index bleve.Index
	mu    sync.RWMutex // protects index during swap
}

// NewSearcher creates a searcher indexing every node of the given graph.
func NewSearcher(ctx context.Context, data *graph.Data) (Searcher, error) {
	index, err := buildIndex(ctx, data)
	if err != nil {
		return nil, err
	}
	return &searcher{index: index}, nil
}

func buildIndex(ctx context.Context, data *graph.Data) (bleve.Index, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	if data != nil {
		if err := indexNodes(ctx, index, data.Nodes); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to index nodes: %w", err)
		}
	}
	return index, nil
}

// buildMapping creates the index mapping for map nodes. Searchable text gets
// the standard analyzer; filterable fields use keyword for exact matching.
func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	nameMapping := bleve.NewTextFieldMapping()
	nameMapping.Analyzer = "standard"
	nameMapping.Store = true
	nameMapping.Index = true
	nameMapping.IncludeTermVectors = true

	contentMapping := bleve.NewTextFieldMapping()
	contentMapping.Analyzer = "standard"
	contentMapping.Store = true
	contentMapping.Index = true
	contentMapping.IncludeTermVectors = true

	kindMapping := bleve.NewTextFieldMapping()
	kindMapping.Analyzer = "keyword"
	kindMapping.Store = true
	kindMapping.Index = true

	typeMapping := bleve.NewTextFieldMapping()
	typeMapping.Analyzer = "keyword"
	typeMapping.Store = true
	typeMapping.Index = true

	pathMapping := bleve.NewTextFieldMapping()
	pathMapping.Analyzer = "standard"
	pathMapping.Store = true
	pathMapping.Index = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", nameMapping)
	docMapping.AddFieldMappingsAt("content", contentMapping)
	docMapping.AddFieldMappingsAt("kind", kindMapping)
	docMapping.AddFieldMappingsAt("element_type", typeMapping)
	docMapping.AddFieldMappingsAt("file_path", pathMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// indexNodes adds nodes to the bleve index in batches.
func indexNodes(ctx context.Context, index bleve.Index, nodes []graph.Node) error {
	const batchSize = 1000

	batch := index.NewBatch()
	for i, node := range nodes {
		if i%batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		if err := batch.Index(node.ID, nodeToDocument(node)); err != nil {
			return fmt.Errorf("failed to add node %s to batch: %w", node.ID, err)
		}

		if batch.Size() >= batchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}

	return nil
}

// nodeToDocument flattens a graph node into the indexed document shape. Code
// nodes search on name, qualified name, and docstring; documentation nodes
// on title and content.
func nodeToDocument(node graph.Node) map[string]interface{} {
	doc := map[string]interface{}{
		"kind": node.NodeType,
	}

	str := func(key string) string {
		s, _ := node.Data[key].(string)
		return s
	}

	name := str("name")
	if name == "" {
		name = str("title")
	}
	if name == "" {
		name = node.ID
	}
	doc["name"] = name

	content := str("docstring")
	if content == "" {
		content = str("content")
	}
	if content != "" {
		doc["content"] = content
	}

	if qn := str("qualified_name"); qn != "" {
		doc["qualified_name"] = qn
	}
	if et := str("element_type"); et != "" {
		doc["element_type"] = et
	}
	if fp := str("file_path"); fp != "" {
		doc["file_path"] = fp
	}
	if ls, ok := node.Data["line_start"]; ok {
		doc["line_start"] = ls
	}

	return doc
}

// Search executes a keyword search using bleve QueryStringQuery syntax.
func (s *searcher) Search(ctx context.Context, queryStr, kind string, limit int) ([]*Hit, error) {
	if limit <= 0 || limit > 100 {
		limit = 15
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var queries []query.Query
	queries = append(queries, bleve.NewQueryStringQuery(queryStr))

	if kind != "" {
		kindQuery := bleve.NewMatchQuery(kind)
		kindQuery.SetField("kind")
		queries = append(queries, kindQuery)
	}

	var finalQuery query.Query
	if len(queries) == 1 {
		finalQuery = queries[0]
	} else {
		finalQuery = bleve.NewConjunctionQuery(queries...)
	}

	searchRequest := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	highlightStyle := "html"
	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.Style = &highlightStyle
	searchRequest.Highlight.Fields = []string{"name", "content"}
	searchRequest.Fields = []string{"name", "kind", "element_type", "file_path", "line_start"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]*Hit, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		name, _ := hit.Fields["name"].(string)
		nodeKind, _ := hit.Fields["kind"].(string)
		elementType, _ := hit.Fields["element_type"].(string)
		filePath, _ := hit.Fields["file_path"].(string)

		lineStart := 0
		if v, ok := hit.Fields["line_start"].(float64); ok {
			lineStart = int(v)
		}

		hits = append(hits, &Hit{
			ID:          hit.ID,
			Kind:        nodeKind,
			Name:        name,
			ElementType: elementType,
			FilePath:    filePath,
			LineStart:   lineStart,
			Score:       hit.Score,
			Fragments:   extractFragments(hit.Fragments),
		})
	}

	return hits, nil
}

// extractFragments flattens bleve's per-field fragments, capped at 3 per
// hit to keep responses readable.
func extractFragments(fragments map[string][]string) []string {
	var out []string
	for _, snippets := range fragments {
		out = append(out, snippets...)
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

// Reindex builds a fresh index from data and swaps it in, closing the old
// one. Concurrent searches finish against the index they started with.
func (s *searcher) Reindex(ctx context.Context, data *graph.Data) error {
	index, err := buildIndex(ctx, data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.index
	s.index = index
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Close releases resources held by the searcher.
func (s *searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
