package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-io/codeatlas/internal/element"
	"github.com/codeatlas-io/codeatlas/internal/graph"
)

// Test Plan for Searcher:
// - Hits come back with id, kind, location, and a positive score
// - kind filter narrows to code or documentation nodes
// - limit caps the number of hits
// - Highlight fragments wrap matches in <em> tags
// - Reindex swaps the whole index contents
// - An empty or nil graph searches cleanly to zero hits

func indexData(t *testing.T) *graph.Data {
	t.Helper()

	s := graph.NewStore()
	s.AddNode("class_1", element.KindCode, map[string]any{
		"name":           "UserService",
		"qualified_name": "app.UserService",
		"element_type":   "CLASS",
		"file_path":      "app.py",
		"line_start":     10,
		"docstring":      "Manages user accounts and sessions.",
	})
	s.AddNode("function_2", element.KindCode, map[string]any{
		"name":         "connect",
		"element_type": "FUNCTION",
		"file_path":    "db.py",
		"line_start":   3,
		"docstring":    "Open a database connection.",
	})
	s.AddNode("User Guide", element.KindDocumentation, map[string]any{
		"title":        "User Guide",
		"element_type": "SECTION",
		"file_path":    "docs/guide.md",
		"line_start":   1,
		"content":      "How accounts are created and managed.",
	})
	return s.Serialize()
}

func newTestSearcher(t *testing.T) Searcher {
	t.Helper()

	s, err := NewSearcher(context.Background(), indexData(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSearcher_FindsByName(t *testing.T) {
	t.Parallel()

	s := newTestSearcher(t)

	hits, err := s.Search(context.Background(), "UserService", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.Equal(t, "class_1", hit.ID)
	assert.Equal(t, element.KindCode, hit.Kind)
	assert.Equal(t, "UserService", hit.Name)
	assert.Equal(t, "CLASS", hit.ElementType)
	assert.Equal(t, "app.py", hit.FilePath)
	assert.Equal(t, 10, hit.LineStart)
	assert.Greater(t, hit.Score, 0.0)
}

func TestSearcher_KindFilter(t *testing.T) {
	t.Parallel()

	s := newTestSearcher(t)

	// "user" appears in a code docstring and in the doc title
	all, err := s.Search(context.Background(), "user", "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	docs, err := s.Search(context.Background(), "user", element.KindDocumentation, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "User Guide", docs[0].ID)

	code, err := s.Search(context.Background(), "user", element.KindCode, 10)
	require.NoError(t, err)
	require.Len(t, code, 1)
	assert.Equal(t, "class_1", code[0].ID)
}

func TestSearcher_Limit(t *testing.T) {
	t.Parallel()

	s := newTestSearcher(t)

	hits, err := s.Search(context.Background(), "user", "", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearcher_NoMatches(t *testing.T) {
	t.Parallel()

	s := newTestSearcher(t)

	hits, err := s.Search(context.Background(), "zeppelin", "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearcher_Fragments(t *testing.T) {
	t.Parallel()

	s := newTestSearcher(t)

	hits, err := s.Search(context.Background(), "accounts", "", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	var highlighted bool
	for _, hit := range hits {
		for _, fragment := range hit.Fragments {
			if strings.Contains(fragment, "<em>") {
				highlighted = true
			}
		}
	}
	assert.True(t, highlighted)
}

func TestSearcher_Reindex(t *testing.T) {
	t.Parallel()

	s := newTestSearcher(t)

	replacement := graph.NewStore()
	replacement.AddNode("class_9", element.KindCode, map[string]any{
		"name":         "Widget",
		"element_type": "CLASS",
		"file_path":    "widget.py",
		"line_start":   1,
	})
	require.NoError(t, s.Reindex(context.Background(), replacement.Serialize()))

	old, err := s.Search(context.Background(), "user", "", 10)
	require.NoError(t, err)
	assert.Empty(t, old)

	hits, err := s.Search(context.Background(), "Widget", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "class_9", hits[0].ID)
}

func TestSearcher_EmptyGraph(t *testing.T) {
	t.Parallel()

	s, err := NewSearcher(context.Background(), nil)
	require.NoError(t, err)
	defer s.Close()

	hits, err := s.Search(context.Background(), "anything", "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
