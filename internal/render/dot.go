package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/codeatlas-io/codeatlas/internal/element"
	"github.com/codeatlas-io/codeatlas/internal/graph"
)

type dotRenderer struct{}

func (dotRenderer) Name() string { return FormatDOT }

// Render emits Graphviz DOT. Rasterization is left to the caller's
// toolchain; the adapter only produces the graph description.
func (dotRenderer) Render(data *graph.Data) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph codeatlas {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n\n")

	for _, n := range data.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, nodeAttrs(n))
	}
	buf.WriteString("\n")

	for _, e := range data.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, edgeLabel(e))
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func nodeAttrs(n graph.Node) string {
	attrs := []string{fmt.Sprintf("label=%q", n.ID)}
	if n.NodeType == element.KindDocumentation {
		attrs = append(attrs, "shape=note", "fillcolor=lightyellow")
	}
	return strings.Join(attrs, ", ")
}

func edgeLabel(e graph.Edge) string {
	return fmt.Sprintf("%s %.2f", e.Type, e.Confidence)
}
