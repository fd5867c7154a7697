package cli

// Test Plan for Search Command:
// - renderHits prints a numbered listing with kind, name, and location
// - renderHits appends element type and line number when present
// - renderHits strips bleve highlight markers from fragments
// - renderHits prints a friendly message when nothing matched
// - stripHighlight removes <em> markers and leaves other text alone

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeatlas-io/codeatlas/internal/search"
)

func TestRenderHits_Listing(t *testing.T) {
	t.Parallel()

	hits := []*search.Hit{
		{
			ID:          "class_1",
			Kind:        "code",
			Name:        "UserService",
			ElementType: "class",
			FilePath:    "services/user.py",
			LineStart:   10,
			Score:       2.5,
			Fragments:   []string{"handles <em>user</em> accounts"},
		},
		{
			ID:    "doc_3",
			Kind:  "documentation",
			Name:  "Authentication",
			Score: 1.1,
		},
	}

	var out bytes.Buffer
	renderHits(&out, "user", hits)

	got := out.String()
	assert.Contains(t, got, `2 results for "user":`)
	assert.Contains(t, got, " 1. [code] UserService (class)")
	assert.Contains(t, got, "    services/user.py:10")
	assert.Contains(t, got, "    handles user accounts")
	assert.NotContains(t, got, "<em>")
	assert.Contains(t, got, " 2. [documentation] Authentication")
}

func TestRenderHits_LocationWithoutLine(t *testing.T) {
	t.Parallel()

	hits := []*search.Hit{
		{ID: "doc_1", Kind: "documentation", Name: "User Guide", FilePath: "docs/guide.md"},
	}

	var out bytes.Buffer
	renderHits(&out, "guide", hits)

	assert.Contains(t, out.String(), "    docs/guide.md\n")
	assert.NotContains(t, out.String(), "docs/guide.md:0")
}

func TestRenderHits_NoResults(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	renderHits(&out, "nonexistent", nil)

	assert.Equal(t, "No results for \"nonexistent\"\n", out.String())
}

func TestStripHighlight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single marker", "the <em>User</em> class", "the User class"},
		{"multiple markers", "<em>auth</em> and <em>token</em>", "auth and token"},
		{"no markers", "plain text", "plain text"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, stripHighlight(tt.input))
		})
	}
}
