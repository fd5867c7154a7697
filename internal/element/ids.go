package element

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// IDGenerator issues element ids for one analysis run. Ids are unique within
// the run and never persisted across runs. The generator is safe for
// concurrent use so per-file extraction workers can share one instance;
// it must be created per run, never held globally.
type IDGenerator struct {
	counter atomic.Int64
}

// NewIDGenerator creates a generator starting at 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next id for the given element type, e.g. "class_1",
// "function_2", "section_3". A single counter is shared across types so ids
// are unique run-wide, not just per type.
func (g *IDGenerator) Next(t ElementType) string {
	n := g.counter.Add(1)
	return fmt.Sprintf("%s_%d", strings.ToLower(string(t)), n)
}

// Count returns how many ids have been issued so far.
func (g *IDGenerator) Count() int64 {
	return g.counter.Load()
}
