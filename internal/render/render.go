// Package render turns the in-memory graph into concrete textual artifacts.
// Adapters observe a strict boundary: input is the graph structure, output
// is one byte payload, and the input is never mutated.
package render

import (
	"fmt"

	"github.com/codeatlas-io/codeatlas/internal/graph"
)

// Renderer renders a serialized graph to one output format.
type Renderer interface {
	// Name is the format key, e.g. "json".
	Name() string

	// Render produces the complete artifact. Must not mutate data.
	Render(data *graph.Data) ([]byte, error)
}

// ByName returns the renderer for a format key.
func ByName(name string) (Renderer, error) {
	switch name {
	case FormatJSON:
		return jsonRenderer{}, nil
	case FormatMermaid:
		return mermaidRenderer{}, nil
	case FormatDOT:
		return dotRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown render format %q (supported: %s, %s, %s)", name, FormatJSON, FormatMermaid, FormatDOT)
}

// Format keys accepted by ByName.
const (
	FormatJSON    = "json"
	FormatMermaid = "mermaid"
	FormatDOT     = "dot"
)
