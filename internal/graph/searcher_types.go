package graph

import "context"

// QueryOperation represents the type of graph query to perform.
type QueryOperation string

const (
	// OperationReferences finds the elements the target references,
	// following REFERENCES and INHERITS_FROM edges forward.
	OperationReferences QueryOperation = "references"
	// OperationReferencedBy finds the elements referencing the target.
	OperationReferencedBy QueryOperation = "referenced_by"
	// OperationChildren finds the elements the target contains.
	OperationChildren QueryOperation = "children"
	// OperationParents finds the elements containing the target.
	OperationParents QueryOperation = "parents"
	// OperationDependencies finds the modules the target imports.
	OperationDependencies QueryOperation = "dependencies"
	// OperationDependents finds the modules importing the target.
	OperationDependents QueryOperation = "dependents"
)

// Query defaults and limits
const (
	DefaultDepth      = 1
	DefaultMaxResults = 100
	MaxDepth          = 10
)

// QueryRequest represents a graph query request.
type QueryRequest struct {
	Operation     QueryOperation // Type of query
	Target        string         // Target element id (or documentation title)
	Depth         int            // Traversal depth (default: 1, capped at MaxDepth)
	MaxResults    int            // Maximum number of results (default: 100)
	MinConfidence float64        // Drop edges below this confidence (default: 0)
}

// QueryResponse represents the response to a graph query.
type QueryResponse struct {
	Operation     string        `json:"operation"`
	Target        string        `json:"target"`
	Results       []QueryResult `json:"results"`
	TotalFound    int           `json:"total_found"`
	TotalReturned int           `json:"total_returned"`
	Truncated     bool          `json:"truncated"`
	Metadata      ResponseMeta  `json:"metadata"`
}

// QueryResult represents a single result from a graph query.
type QueryResult struct {
	Node       *Node   `json:"node"`
	Depth      int     `json:"depth,omitempty"`      // Depth in traversal (for recursive queries)
	Confidence float64 `json:"confidence,omitempty"` // Confidence of the edge that reached the node
}

// ResponseMeta contains metadata about the query execution.
type ResponseMeta struct {
	TookMs int    `json:"took_ms"`
	Source string `json:"source"` // Always "graph"
}

// Searcher provides graph query capabilities with reverse indexes.
type Searcher interface {
	// Query executes a graph query and returns results.
	Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error)

	// Reload swaps in a new graph snapshot and rebuilds indexes.
	Reload(store *Store)
}
