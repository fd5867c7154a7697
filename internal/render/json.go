package render

import (
	"encoding/json"

	"github.com/codeatlas-io/codeatlas/internal/graph"
)

// exportDocument is the machine-readable export shape. Unlike the on-disk
// graph file it carries metadata under a plain key so downstream consumers
// don't have to know about the storage envelope.
type exportDocument struct {
	Metadata      graph.Metadata `json:"metadata"`
	Nodes         []graph.Node   `json:"nodes"`
	Relationships []graph.Edge   `json:"relationships"`
}

type jsonRenderer struct{}

func (jsonRenderer) Name() string { return FormatJSON }

func (jsonRenderer) Render(data *graph.Data) ([]byte, error) {
	doc := exportDocument{
		Metadata:      data.Metadata,
		Nodes:         data.Nodes,
		Relationships: data.Edges,
	}
	if doc.Nodes == nil {
		doc.Nodes = []graph.Node{}
	}
	if doc.Relationships == nil {
		doc.Relationships = []graph.Edge{}
	}
	return json.MarshalIndent(doc, "", "  ")
}
