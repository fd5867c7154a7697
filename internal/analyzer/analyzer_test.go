package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-io/codeatlas/internal/discovery"
	"github.com/codeatlas-io/codeatlas/internal/element"
)

// Test Plan for the analyzer registry:
// - Select the first matching analyzer in registration order
// - Return nil when no analyzer matches
// - Look up analyzers by name
// - Replace a re-registered name without changing its selection position
// - Default registry covers python, go, and markdown

type stubAnalyzer struct {
	name string
	ext  string
}

func (s *stubAnalyzer) Name() string { return s.name }

func (s *stubAnalyzer) CanAnalyze(file discovery.FileInfo) bool {
	return len(file.RelativePath) >= len(s.ext) &&
		file.RelativePath[len(file.RelativePath)-len(s.ext):] == s.ext
}

func (s *stubAnalyzer) Analyze(_ context.Context, file discovery.FileInfo, _ []byte, _ *element.IDGenerator) (*Result, error) {
	return &Result{File: file}, nil
}

func TestRegistry_SelectFor(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	first := &stubAnalyzer{name: "first", ext: ".txt"}
	second := &stubAnalyzer{name: "second", ext: ".txt"}
	r.Register(first)
	r.Register(second)

	// Both match; registration order decides.
	selected := r.SelectFor(discovery.FileInfo{RelativePath: "notes.txt"})
	require.NotNil(t, selected)
	assert.Equal(t, "first", selected.Name())

	assert.Nil(t, r.SelectFor(discovery.FileInfo{RelativePath: "image.png"}))
}

func TestRegistry_CreateByName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	a := &stubAnalyzer{name: "stub", ext: ".txt"}
	r.Register(a)

	assert.Equal(t, a, r.CreateByName("stub"))
	assert.Nil(t, r.CreateByName("missing"))
}

func TestRegistry_ReregisterKeepsPosition(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubAnalyzer{name: "a", ext: ".txt"})
	r.Register(&stubAnalyzer{name: "b", ext: ".txt"})

	replacement := &stubAnalyzer{name: "a", ext: ".log"}
	r.Register(replacement)

	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, replacement, r.CreateByName("a"))
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	assert.Equal(t, []string{"python", "go", "markdown"}, r.Names())

	py := r.SelectFor(discovery.FileInfo{RelativePath: "app/main.py"})
	require.NotNil(t, py)
	assert.Equal(t, "python", py.Name())

	md := r.SelectFor(discovery.FileInfo{RelativePath: "README.md"})
	require.NotNil(t, md)
	assert.Equal(t, "markdown", md.Name())

	assert.Nil(t, r.SelectFor(discovery.FileInfo{RelativePath: "binary.exe"}))
}
