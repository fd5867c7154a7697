// Package graph holds the relationship graph for one analysis run: a
// build-only node/edge store with integrity checks, JSON serialization, disk
// persistence, and an indexed query layer.
package graph

import (
	"errors"
	"fmt"

	"github.com/codeatlas-io/codeatlas/internal/element"
)

var (
	// ErrUnknownNode is returned when an edge references a node that was
	// never added. Always a producer defect, never bad input data.
	ErrUnknownNode = errors.New("unknown graph node")

	// ErrInvalidConfidence is returned when an edge's confidence falls
	// outside the closed interval [0.0, 1.0].
	ErrInvalidConfidence = errors.New("confidence outside [0.0, 1.0]")
)

// Node is a graph vertex: one code or documentation element.
type Node struct {
	ID       string         `json:"id"`
	NodeType string         `json:"node_type"` // "code" or "documentation"
	Data     map[string]any `json:"data,omitempty"`
}

// Edge is a directed, typed, confidence-scored connection between two nodes.
type Edge struct {
	Source     string                   `json:"source"`
	Target     string                   `json:"target"`
	Type       element.RelationshipType `json:"relationship_type"`
	Confidence float64                  `json:"confidence"`
	Metadata   map[string]any           `json:"metadata,omitempty"`
}

// Store is the sole owner of nodes and edges for one analysis run. It is
// build-only: populate it, then treat it as read-only once handed to the
// output stage. Not safe for concurrent mutation.
type Store struct {
	nodes map[string]Node
	order []string // node ids in first-insertion order
	edges []Edge
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{nodes: make(map[string]Node)}
}

// AddNode upserts a node. Repeated ids keep their original position; the
// last write wins for type and data.
func (s *Store) AddNode(id, nodeType string, data map[string]any) {
	if _, exists := s.nodes[id]; !exists {
		s.order = append(s.order, id)
	}
	s.nodes[id] = Node{ID: id, NodeType: nodeType, Data: data}
}

// AddEdge appends a directed edge. Both endpoints must already exist and
// confidence must be within [0.0, 1.0]; violations indicate a mapper defect
// and fail immediately rather than corrupting downstream reasoning.
func (s *Store) AddEdge(source, target string, relType element.RelationshipType, confidence float64, metadata map[string]any) error {
	if _, ok := s.nodes[source]; !ok {
		return fmt.Errorf("%w: source %q", ErrUnknownNode, source)
	}
	if _, ok := s.nodes[target]; !ok {
		return fmt.Errorf("%w: target %q", ErrUnknownNode, target)
	}
	if !(confidence >= 0.0 && confidence <= 1.0) {
		return fmt.Errorf("%w: %v on %s -> %s", ErrInvalidConfidence, confidence, source, target)
	}

	s.edges = append(s.edges, Edge{
		Source:     source,
		Target:     target,
		Type:       relType,
		Confidence: confidence,
		Metadata:   metadata,
	})
	return nil
}

// AddRelationship adds a mapper-produced relationship as an edge. Endpoint
// nodes must have been added beforehand.
func (s *Store) AddRelationship(rel element.Relationship) error {
	return s.AddEdge(rel.SourceID, rel.TargetID, rel.Type, rel.Confidence, rel.Metadata)
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns all nodes in first-insertion order.
func (s *Store) Nodes() []Node {
	nodes := make([]Node, len(s.order))
	for i, id := range s.order {
		nodes[i] = s.nodes[id]
	}
	return nodes
}

// Edges returns all edges in insertion order.
func (s *Store) Edges() []Edge {
	edges := make([]Edge, len(s.edges))
	copy(edges, s.edges)
	return edges
}

// GetRelationshipsBetween returns every edge connecting a and b in either
// direction, in insertion order. Callers needing one direction filter on
// Source themselves.
func (s *Store) GetRelationshipsBetween(a, b string) []Edge {
	var out []Edge
	for _, e := range s.edges {
		if (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a) {
			out = append(out, e)
		}
	}
	return out
}

// Relationships converts the edge list back to mapper-shaped relationships,
// with endpoint kinds taken from the node table.
func (s *Store) Relationships() []element.Relationship {
	rels := make([]element.Relationship, len(s.edges))
	for i, e := range s.edges {
		rels[i] = element.Relationship{
			SourceID:   e.Source,
			TargetID:   e.Target,
			Type:       e.Type,
			SourceType: s.nodes[e.Source].NodeType,
			TargetType: s.nodes[e.Target].NodeType,
			Confidence: e.Confidence,
			Metadata:   e.Metadata,
		}
	}
	return rels
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	return len(s.edges)
}
