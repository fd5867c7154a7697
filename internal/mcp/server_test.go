package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-io/codeatlas/internal/element"
	"github.com/codeatlas-io/codeatlas/internal/graph"
)

// Test Plan for Server:
// - NewServer loads an existing map and serves both indexes
// - NewServer fails with a hint when no map exists
// - reload swaps in a regenerated map
// - reload keeps the previous state when the new map is corrupt

func writeMap(t *testing.T, dir string, build func(t *testing.T, store *graph.Store)) {
	t.Helper()

	store := graph.NewStore()
	build(t, store)

	storage, err := graph.NewStorage(dir)
	require.NoError(t, err)
	require.NoError(t, storage.Save(store.Serialize()))
}

func userServiceMap(t *testing.T, store *graph.Store) {
	store.AddNode("class_1", "code", map[string]any{
		"name":         "UserService",
		"element_type": "class",
		"file_path":    "services/user.py",
		"line_start":   10,
	})
	store.AddNode("User Guide", "documentation", map[string]any{
		"title":        "User Guide",
		"element_type": "SECTION",
		"file_path":    "docs/guide.md",
		"content":      "The UserService manages accounts.",
	})
	require.NoError(t, store.AddEdge("User Guide", "class_1", element.RelReferences, 0.8, nil))
}

func TestNewServer_LoadsMap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMap(t, dir, userServiceMap)

	s, err := NewServer(context.Background(), dir, "1.0.0")
	require.NoError(t, err)
	defer s.Close()

	hits, err := s.searcher.Search(context.Background(), "UserService", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "class_1", hits[0].ID)

	resp, err := s.querier.Query(context.Background(), &graph.QueryRequest{
		Operation: graph.OperationReferencedBy,
		Target:    "class_1",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "User Guide", resp.Results[0].Node.ID)
}

func TestNewServer_NoMap(t *testing.T) {
	t.Parallel()

	s, err := NewServer(context.Background(), t.TempDir(), "1.0.0")
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "run 'codeatlas index' first")
}

func TestServer_Reload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMap(t, dir, userServiceMap)

	s, err := NewServer(context.Background(), dir, "1.0.0")
	require.NoError(t, err)
	defer s.Close()

	// Regenerate the map with entirely different content.
	writeMap(t, dir, func(t *testing.T, store *graph.Store) {
		store.AddNode("class_9", "code", map[string]any{
			"name":         "WidgetMaker",
			"element_type": "class",
			"file_path":    "widgets.py",
			"line_start":   1,
		})
	})
	s.reload(context.Background())

	hits, err := s.searcher.Search(context.Background(), "WidgetMaker", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "class_9", hits[0].ID)

	hits, err = s.searcher.Search(context.Background(), "UserService", "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	resp, err := s.querier.Query(context.Background(), &graph.QueryRequest{
		Operation: graph.OperationReferencedBy,
		Target:    "class_1",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestServer_ReloadKeepsStateOnCorruptMap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMap(t, dir, userServiceMap)

	s, err := NewServer(context.Background(), dir, "1.0.0")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, graph.GraphFileName), []byte("{not json"), 0o644))
	s.reload(context.Background())

	hits, err := s.searcher.Search(context.Background(), "UserService", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "class_1", hits[0].ID)
}
