package render

import (
	"bytes"
	"fmt"

	"github.com/codeatlas-io/codeatlas/internal/element"
	"github.com/codeatlas-io/codeatlas/internal/graph"
)

type mermaidRenderer struct{}

func (mermaidRenderer) Name() string { return FormatMermaid }

// Render emits a Mermaid flowchart. Node ids in Mermaid cannot contain
// spaces or punctuation, so every node gets a positional alias and the
// real id becomes the quoted label. Code nodes render as rectangles,
// documentation nodes as rounded boxes.
func (mermaidRenderer) Render(data *graph.Data) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("graph TD\n")

	aliases := make(map[string]string, len(data.Nodes))
	for i, n := range data.Nodes {
		alias := fmt.Sprintf("n%d", i)
		aliases[n.ID] = alias
		if n.NodeType == element.KindDocumentation {
			fmt.Fprintf(&buf, "    %s(%q)\n", alias, n.ID)
		} else {
			fmt.Fprintf(&buf, "    %s[%q]\n", alias, n.ID)
		}
	}

	for _, e := range data.Edges {
		src, ok := aliases[e.Source]
		if !ok {
			continue
		}
		dst, ok := aliases[e.Target]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "    %s -->|%s %.2f| %s\n", src, e.Type, e.Confidence, dst)
	}

	return buf.Bytes(), nil
}
