// Package chunker packs the relationship set into token-budgeted chunks for
// export, plus a master index acting as a table of contents. Packing is
// greedy: relationships sharing a source element stay together whenever they
// fit, and only groups larger than the whole budget are split.
package chunker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codeatlas-io/codeatlas/internal/element"
)

// ErrInvalidConfig is returned for an unusable chunking configuration, such
// as a non-positive target size.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// TypeRelationships is the chunk type for relationship payloads.
const TypeRelationships = "relationships"

// DefaultTargetSize is the default chunk budget in estimated tokens.
const DefaultTargetSize = 2000

// TokenEstimator reports the estimated token footprint of one value. The
// chunker is agnostic to the algorithm, only to the numeric result.
type TokenEstimator func(v any) int

// EstimateByJSON is the default estimator: serialized JSON length at roughly
// four characters per token.
func EstimateByJSON(v any) int {
	raw, err := json.Marshal(v)
	if err != nil {
		return 1
	}
	return len(raw) / 4
}

// Chunk is one token-budgeted unit of output.
type Chunk struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Index         int                    `json:"index"`
	Payload       []element.Relationship `json:"payload"`
	Sources       []string               `json:"sources"` // originating source ids, first-seen order
	TokenEstimate int                    `json:"token_estimate"`
}

// ChunkSummary is one master-index entry.
type ChunkSummary struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Count         int    `json:"count"`
	TokenEstimate int    `json:"token_estimate"`
}

// MasterChunk indexes all chunks of one output run.
type MasterChunk struct {
	TotalChunks        int            `json:"total_chunks"`
	TotalRelationships int            `json:"total_relationships"`
	Chunks             []ChunkSummary `json:"chunks"`
	RelationshipChunks []string       `json:"relationship_chunks"` // ids, for quick lookup
}

// Output is the complete chunked form of one relationship set.
type Output struct {
	Chunks map[string]*Chunk `json:"chunks"`
	Master *MasterChunk      `json:"master"`
}

// Generator packs relationships into chunks.
type Generator struct {
	targetSize int
	estimate   TokenEstimator
}

// Option configures a Generator.
type Option func(*Generator)

// WithEstimator replaces the default JSON-length estimator.
func WithEstimator(fn TokenEstimator) Option {
	return func(g *Generator) {
		if fn != nil {
			g.estimate = fn
		}
	}
}

// New creates a Generator with the given token budget per chunk.
func New(targetSize int, opts ...Option) (*Generator, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("%w: target size %d", ErrInvalidConfig, targetSize)
	}
	g := &Generator{targetSize: targetSize, estimate: EstimateByJSON}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// group is all relationships sharing one source id, in input order.
type group struct {
	sourceID string
	rels     []element.Relationship
	size     int
}

// Generate packs the relationship set. Deterministic: identical input yields
// identical chunk names, contents, and order. Performs no I/O.
func (g *Generator) Generate(rels []element.Relationship) *Output {
	groups := g.groupBySource(rels)

	p := &packer{typ: TypeRelationships, target: g.targetSize}
	for _, grp := range groups {
		if grp.size > g.targetSize {
			// The group alone blows the budget: close whatever is open,
			// then split the group into own-sourced sub-chunks that are
			// never merged with other groups.
			p.close()
			g.splitGroup(p, grp)
			continue
		}
		if p.size > 0 && p.size+grp.size > g.targetSize {
			p.close()
		}
		p.add(grp.sourceID, grp.rels, grp.size)
	}
	p.close()

	master := &MasterChunk{
		TotalChunks:        len(p.chunks),
		TotalRelationships: len(rels),
		Chunks:             []ChunkSummary{},
		RelationshipChunks: []string{},
	}
	chunks := make(map[string]*Chunk, len(p.chunks))
	for _, chunk := range p.chunks {
		chunks[chunk.ID] = chunk
		master.Chunks = append(master.Chunks, ChunkSummary{
			ID:            chunk.ID,
			Type:          chunk.Type,
			Count:         len(chunk.Payload),
			TokenEstimate: chunk.TokenEstimate,
		})
		master.RelationshipChunks = append(master.RelationshipChunks, chunk.ID)
	}

	return &Output{Chunks: chunks, Master: master}
}

// groupBySource partitions relationships by source id, keeping first-seen
// group order and input order inside each group.
func (g *Generator) groupBySource(rels []element.Relationship) []*group {
	var groups []*group
	index := make(map[string]*group)
	for _, rel := range rels {
		grp, ok := index[rel.SourceID]
		if !ok {
			grp = &group{sourceID: rel.SourceID}
			index[rel.SourceID] = grp
			groups = append(groups, grp)
		}
		grp.rels = append(grp.rels, rel)
		grp.size += g.estimate(rel)
	}
	return groups
}

// splitGroup packs one oversized group into sequential sub-chunks. A single
// relationship larger than the budget still gets its own chunk; it is
// irreducible.
func (g *Generator) splitGroup(p *packer, grp *group) {
	for _, rel := range grp.rels {
		size := g.estimate(rel)
		if p.size > 0 && p.size+size > p.target {
			p.close()
		}
		p.add(grp.sourceID, []element.Relationship{rel}, size)
	}
	p.close()
}

// packer accumulates one open chunk and the list of closed ones.
type packer struct {
	typ    string
	target int

	chunks  []*Chunk
	payload []element.Relationship
	sources []string
	seen    map[string]bool
	size    int
}

func (p *packer) add(sourceID string, rels []element.Relationship, size int) {
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	if !p.seen[sourceID] {
		p.seen[sourceID] = true
		p.sources = append(p.sources, sourceID)
	}
	p.payload = append(p.payload, rels...)
	p.size += size
}

func (p *packer) close() {
	if len(p.payload) == 0 {
		return
	}
	index := len(p.chunks)
	p.chunks = append(p.chunks, &Chunk{
		ID:            fmt.Sprintf("%s_%d", p.typ, index),
		Type:          p.typ,
		Index:         index,
		Payload:       p.payload,
		Sources:       p.sources,
		TokenEstimate: p.size,
	})
	p.payload = nil
	p.sources = nil
	p.seen = nil
	p.size = 0
}
