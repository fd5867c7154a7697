package graph

import (
	"fmt"
	"time"

	"github.com/codeatlas-io/codeatlas/internal/element"
)

// FormatVersion is the current version of the serialized graph format.
const FormatVersion = "1.0"

// Metadata describes a serialized graph.
type Metadata struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
	RunID       string    `json:"run_id,omitempty"`
}

// Data is the serialized graph structure written to disk.
type Data struct {
	Metadata Metadata `json:"_metadata"`
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
}

// Serialize snapshots the store into its serialized form. GeneratedAt and
// RunID are stamped by the caller (storage on save, pipeline for the run id).
func (s *Store) Serialize() *Data {
	return &Data{
		Metadata: Metadata{
			Version:   FormatVersion,
			NodeCount: s.NodeCount(),
			EdgeCount: s.EdgeCount(),
		},
		Nodes: s.Nodes(),
		Edges: s.Edges(),
	}
}

// RebuildFromSerialized reconstructs a store from its serialized form. The
// round-trip preserves the node-id set and the edge list including order.
func RebuildFromSerialized(data *Data) (*Store, error) {
	s := NewStore()
	for _, n := range data.Nodes {
		s.AddNode(n.ID, n.NodeType, n.Data)
	}
	for _, e := range data.Edges {
		if err := s.AddEdge(e.Source, e.Target, e.Type, e.Confidence, e.Metadata); err != nil {
			return nil, fmt.Errorf("rebuild edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}
	return s, nil
}

// RebuildFromRelationships reconstructs a store from a flat relationship
// list with no node information. Nodes are synthesized for every id seen;
// the node type is inferred as "code" when the id ever appears as a
// relationship source and "documentation" otherwise. This is a best-effort
// heuristic for legacy flat exports, not guaranteed accurate for ids that
// play both roles.
func RebuildFromRelationships(rels []element.Relationship) (*Store, error) {
	asSource := make(map[string]bool, len(rels))
	for _, rel := range rels {
		asSource[rel.SourceID] = true
	}

	s := NewStore()
	for _, rel := range rels {
		for _, id := range [2]string{rel.SourceID, rel.TargetID} {
			if _, ok := s.nodes[id]; ok {
				continue
			}
			nodeType := element.KindDocumentation
			if asSource[id] {
				nodeType = element.KindCode
			}
			s.AddNode(id, nodeType, nil)
		}
	}

	for _, rel := range rels {
		if err := s.AddRelationship(rel); err != nil {
			return nil, err
		}
	}
	return s, nil
}
