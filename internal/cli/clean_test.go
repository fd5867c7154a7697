package cli

// Test Plan for Clean Command:
// - cleanMap deletes an existing map directory and reports the file count
// - cleanMap handles a missing map directory gracefully
// - cleanMap refuses to delete a path that is not a directory
// - cleanMap output is suppressed when writing to io.Discard
// - mapStats counts files recursively and calculates total size
// - mapStats handles an empty map directory

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestMap creates a map directory populated with output files.
func setupTestMap(t *testing.T, files map[string]int) string {
	t.Helper()

	mapDir := filepath.Join(t.TempDir(), ".codeatlas", "map")
	require.NoError(t, os.MkdirAll(filepath.Join(mapDir, ".tmp"), 0o755))

	for name, size := range files {
		path := filepath.Join(mapDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	}

	return mapDir
}

func TestCleanMap_DeletesMapDirectory(t *testing.T) {
	t.Parallel()

	mapDir := setupTestMap(t, map[string]int{
		"graph.json":               2048,
		"master.json":              512,
		"relationships_0001.json":  4096,
		".tmp/graph.json.1234.tmp": 128,
	})

	var out bytes.Buffer
	err := cleanMap(mapDir, &out)
	require.NoError(t, err)

	_, err = os.Stat(mapDir)
	assert.True(t, os.IsNotExist(err), "map directory should be deleted")

	assert.Contains(t, out.String(), "✓ Cleaned code map (4 files")
	assert.Contains(t, out.String(), "Next 'codeatlas index' will rebuild the map from scratch")
}

func TestCleanMap_MissingMapDirectory(t *testing.T) {
	t.Parallel()

	mapDir := filepath.Join(t.TempDir(), ".codeatlas", "map")

	var out bytes.Buffer
	err := cleanMap(mapDir, &out)
	assert.NoError(t, err, "should handle missing map gracefully")
	assert.Contains(t, out.String(), "No code map found for this project")
}

func TestCleanMap_RejectsNonDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "map")
	require.NoError(t, os.WriteFile(path, []byte("not a directory"), 0o644))

	err := cleanMap(path, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")

	_, err = os.Stat(path)
	assert.NoError(t, err, "file should not be deleted")
}

func TestCleanMap_QuietOutput(t *testing.T) {
	t.Parallel()

	mapDir := setupTestMap(t, map[string]int{"graph.json": 64})

	err := cleanMap(mapDir, io.Discard)
	require.NoError(t, err)

	_, err = os.Stat(mapDir)
	assert.True(t, os.IsNotExist(err), "map directory should be deleted")
}

func TestMapStats_CountsFilesRecursively(t *testing.T) {
	t.Parallel()

	mapDir := setupTestMap(t, map[string]int{
		"graph.json":              1024 * 1024,     // 1 MB
		"relationships_0001.json": 2 * 1024 * 1024, // 2 MB
		".tmp/stale.tmp":          512 * 1024,      // 0.5 MB
	})

	sizeMB, fileCount := mapStats(mapDir)

	assert.Equal(t, 3, fileCount, "should count files in subdirectories too")
	assert.InDelta(t, 3.5, sizeMB, 0.01, "total size should be 3.5 MB")
}

func TestMapStats_EmptyDirectory(t *testing.T) {
	t.Parallel()

	mapDir := t.TempDir()

	sizeMB, fileCount := mapStats(mapDir)

	assert.Equal(t, 0, fileCount)
	assert.Equal(t, 0.0, sizeMB)
}
