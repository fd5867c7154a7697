package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dominikbraun/graph"

	"github.com/codeatlas-io/codeatlas/internal/element"
)

// edgeRef is one index entry: the neighbor id plus the confidence of the
// edge leading there.
type edgeRef struct {
	id         string
	confidence float64
}

// resultWithDepth is an internal type for tracking depth in traversal.
type resultWithDepth struct {
	id         string
	depth      int
	confidence float64
}

// searcher implements Searcher with an in-memory graph and reverse indexes.
type searcher struct {
	mu sync.RWMutex // protects graph and indexes

	// In-memory graph
	graph graph.Graph[string, *Node]

	// Reverse indexes for O(1) lookups
	refsOut     map[string][]edgeRef // element -> [elements it references]
	refsIn      map[string][]edgeRef // element -> [elements referencing it]
	containsOut map[string][]edgeRef // container -> [contained elements]
	containsIn  map[string][]edgeRef // element -> [its containers]
	importsOut  map[string][]edgeRef // module -> [imported modules]
	importsIn   map[string][]edgeRef // module -> [importing modules]
}

// NewSearcher creates a searcher over one graph snapshot.
func NewSearcher(store *Store) Searcher {
	s := &searcher{}
	s.Reload(store)
	return s
}

// Reload swaps in a new graph snapshot and rebuilds all indexes.
func (s *searcher) Reload(store *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph = graph.New(func(n *Node) string { return n.ID }, graph.Directed())

	s.refsOut = make(map[string][]edgeRef)
	s.refsIn = make(map[string][]edgeRef)
	s.containsOut = make(map[string][]edgeRef)
	s.containsIn = make(map[string][]edgeRef)
	s.importsOut = make(map[string][]edgeRef)
	s.importsIn = make(map[string][]edgeRef)

	if store == nil {
		return
	}

	nodes := store.Nodes()
	for i := range nodes {
		// The store already deduplicates ids, so AddVertex cannot fail
		// with anything recoverable; ignore like any other multi-insert.
		_ = s.graph.AddVertex(&nodes[i])
	}

	for _, e := range store.Edges() {
		// Parallel edges between one pair are legal in the store but not
		// in the index graph; the reverse indexes keep every edge.
		_ = s.graph.AddEdge(e.Source, e.Target)

		ref := edgeRef{id: e.Target, confidence: e.Confidence}
		back := edgeRef{id: e.Source, confidence: e.Confidence}

		switch e.Type {
		case element.RelReferences, element.RelInheritsFrom:
			s.refsOut[e.Source] = append(s.refsOut[e.Source], ref)
			s.refsIn[e.Target] = append(s.refsIn[e.Target], back)
		case element.RelContains:
			s.containsOut[e.Source] = append(s.containsOut[e.Source], ref)
			s.containsIn[e.Target] = append(s.containsIn[e.Target], back)
		case element.RelImports:
			s.importsOut[e.Source] = append(s.importsOut[e.Source], ref)
			s.importsIn[e.Target] = append(s.importsIn[e.Target], back)
		}
	}
}

// Query executes a graph query.
func (s *searcher) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startTime := time.Now()

	// Set defaults
	if req.Depth <= 0 {
		req.Depth = DefaultDepth
	}
	if req.Depth > MaxDepth {
		req.Depth = MaxDepth
	}
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}

	var found []resultWithDepth
	switch req.Operation {
	case OperationReferences:
		found = s.traverse(s.refsOut, req.Target, req.Depth, req.MinConfidence)
	case OperationReferencedBy:
		found = s.traverse(s.refsIn, req.Target, req.Depth, req.MinConfidence)
	case OperationChildren:
		found = s.traverse(s.containsOut, req.Target, req.Depth, req.MinConfidence)
	case OperationParents:
		found = s.traverse(s.containsIn, req.Target, req.Depth, req.MinConfidence)
	case OperationDependencies:
		// Imports don't chain; always depth 1.
		found = s.traverse(s.importsOut, req.Target, 1, req.MinConfidence)
	case OperationDependents:
		found = s.traverse(s.importsIn, req.Target, 1, req.MinConfidence)
	default:
		return nil, fmt.Errorf("unsupported operation: %s", req.Operation)
	}

	// Build results
	results := []QueryResult{}
	seen := make(map[string]bool)

	for _, rd := range found {
		if seen[rd.id] {
			continue
		}
		seen[rd.id] = true

		node, err := s.graph.Vertex(rd.id)
		if err != nil {
			// Edge to an id the node table never declared.
			continue
		}

		results = append(results, QueryResult{
			Node:       node,
			Depth:      rd.depth,
			Confidence: rd.confidence,
		})

		if len(results) >= req.MaxResults {
			break
		}
	}

	return &QueryResponse{
		Operation:     string(req.Operation),
		Target:        req.Target,
		Results:       results,
		TotalFound:    len(found),
		TotalReturned: len(results),
		Truncated:     len(results) < len(found),
		Metadata: ResponseMeta{
			TookMs: int(time.Since(startTime).Milliseconds()),
			Source: "graph",
		},
	}, nil
}

// traverse walks one index from target, recursively up to depth, skipping
// edges below minConfidence.
func (s *searcher) traverse(index map[string][]edgeRef, target string, depth int, minConfidence float64) []resultWithDepth {
	results := []resultWithDepth{}
	visited := make(map[string]int) // id -> shallowest depth at which it was expanded

	var walk func(id string, currentDepth int)
	walk = func(id string, currentDepth int) {
		if currentDepth > depth {
			return
		}
		if prevDepth, seen := visited[id]; seen && prevDepth <= currentDepth {
			return
		}
		visited[id] = currentDepth

		for _, ref := range index[id] {
			if ref.confidence < minConfidence {
				continue
			}
			results = append(results, resultWithDepth{id: ref.id, depth: currentDepth, confidence: ref.confidence})
			if currentDepth < depth {
				walk(ref.id, currentDepth+1)
			}
		}
	}

	walk(target, 1)
	return results
}
