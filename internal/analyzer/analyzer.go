package analyzer

import (
	"context"

	"github.com/codeatlas-io/codeatlas/internal/discovery"
	"github.com/codeatlas-io/codeatlas/internal/element"
)

// Result is the outcome of analyzing one file. Exactly one of Code or Docs
// is populated depending on the analyzer that produced it.
type Result struct {
	File discovery.FileInfo `json:"file"`

	// Code extraction output.
	Code     []*element.CodeElement `json:"code,omitempty"`
	Children map[string][]string    `json:"children,omitempty"` // parent id -> child ids, declaration order

	// Documentation extraction output.
	Docs        []*element.DocumentationElement `json:"docs,omitempty"`
	FrontMatter map[string]any                  `json:"front_matter,omitempty"`
	Title       string                          `json:"title,omitempty"`
	Summary     string                          `json:"summary,omitempty"`
}

// Analyzer extracts structural elements from one file. Implementations carry
// no mutable state between invocations; run-scoped state (the id generator)
// is passed in so one instance can serve concurrent workers.
type Analyzer interface {
	// Name is the registry lookup key, e.g. "python".
	Name() string

	// CanAnalyze reports whether this analyzer handles the file.
	CanAnalyze(file discovery.FileInfo) bool

	// Analyze extracts elements from source. A malformed file returns an
	// error; the caller isolates it from sibling files.
	Analyze(ctx context.Context, file discovery.FileInfo, source []byte, ids *element.IDGenerator) (*Result, error)
}

// Registry holds analyzers in registration order. Selection returns the
// first analyzer whose CanAnalyze accepts the file, so registration order is
// the dispatch priority.
type Registry struct {
	analyzers []Analyzer
	byName    map[string]Analyzer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Analyzer)}
}

// Register appends an analyzer. A repeated name replaces the lookup entry
// but keeps the original selection position.
func (r *Registry) Register(a Analyzer) {
	if _, exists := r.byName[a.Name()]; !exists {
		r.analyzers = append(r.analyzers, a)
	}
	r.byName[a.Name()] = a
}

// SelectFor returns the first registered analyzer that can handle the file,
// or nil when none match.
func (r *Registry) SelectFor(file discovery.FileInfo) Analyzer {
	for _, a := range r.analyzers {
		if a.CanAnalyze(file) {
			return a
		}
	}
	return nil
}

// CreateByName returns the analyzer registered under name, or nil.
func (r *Registry) CreateByName(name string) Analyzer {
	return r.byName[name]
}

// Names returns the registered analyzer names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.analyzers))
	for i, a := range r.analyzers {
		names[i] = a.Name()
	}
	return names
}

// DefaultRegistry returns a registry with the built-in analyzers: code
// extractors first, then documentation.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPythonAnalyzer())
	r.Register(NewGoAnalyzer())
	r.Register(NewMarkdownAnalyzer())
	return r
}
