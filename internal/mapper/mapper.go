// Package mapper cross-references code and documentation elements into typed,
// confidence-scored relationships.
//
// Three relationship families are produced:
//
//   - CONTAINS: documentation hierarchy, structural, confidence 1.0.
//   - REFERENCES: a documentation element's content mentions a code element's
//     name. Confidence is heuristic; see Score.
//   - INHERITS_FROM: a code element's declared base class resolves to another
//     element in the same set.
//   - IMPORTS: a module's recorded imports name another module in the set.
//
// Mapping is single-threaded over the full element lists and deterministic:
// identical inputs yield identical relationship order and confidences.
package mapper

import (
	"strings"

	"github.com/codeatlas-io/codeatlas/internal/element"
)

// DefaultProximityWindow is the byte distance around a name match inside
// which corroborating tokens (base class names) count toward confidence.
const DefaultProximityWindow = 150

// Mapper infers relationships between extracted elements.
type Mapper struct {
	window int
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithProximityWindow overrides the corroboration window size in bytes.
func WithProximityWindow(window int) Option {
	return func(m *Mapper) {
		if window > 0 {
			m.window = window
		}
	}
}

// New creates a Mapper with default settings.
func New(opts ...Option) *Mapper {
	m := &Mapper{window: DefaultProximityWindow}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MapRelationships produces the full relationship list for one analysis run.
// Documentation endpoints are addressed by element key (title, falling back
// to id); code endpoints by element id.
func (m *Mapper) MapRelationships(code []*element.CodeElement, docs []*element.DocumentationElement) []element.Relationship {
	var rels []element.Relationship
	rels = append(rels, m.hierarchyRelationships(docs)...)
	rels = append(rels, m.referenceRelationships(code, docs)...)
	rels = append(rels, m.inheritanceRelationships(code)...)
	rels = append(rels, m.importRelationships(code)...)
	return rels
}

// hierarchyRelationships emits CONTAINS parent→child for every documentation
// element with a parent. These are structural facts, not inferences, so
// confidence is always exactly 1.0.
func (m *Mapper) hierarchyRelationships(docs []*element.DocumentationElement) []element.Relationship {
	var rels []element.Relationship
	for _, d := range docs {
		if d.Parent == "" {
			continue
		}
		rels = append(rels, element.Relationship{
			SourceID:   d.Parent,
			TargetID:   d.Key(),
			Type:       element.RelContains,
			SourceType: element.KindDocumentation,
			TargetType: element.KindDocumentation,
			Confidence: 1.0,
		})
	}
	return rels
}

// referenceRelationships emits REFERENCES doc→code wherever a code block or
// paragraph mentions a code element's name, case-insensitively.
func (m *Mapper) referenceRelationships(code []*element.CodeElement, docs []*element.DocumentationElement) []element.Relationship {
	var rels []element.Relationship
	for _, d := range docs {
		if d.Type != element.TypeCodeBlock && d.Type != element.TypeParagraph {
			continue
		}
		if d.Content == "" {
			continue
		}
		lowered := strings.ToLower(d.Content)

		for _, c := range code {
			if c.Name == "" {
				continue
			}
			pos := strings.Index(lowered, strings.ToLower(c.Name))
			if pos < 0 {
				continue
			}

			confidence := Score(m.matchContext(d, c, pos))
			rels = append(rels, element.Relationship{
				SourceID:   d.Key(),
				TargetID:   c.ID,
				Type:       element.RelReferences,
				SourceType: element.KindDocumentation,
				TargetType: element.KindCode,
				Confidence: confidence,
				Metadata: map[string]any{
					"matched_name":  c.Name,
					"match_context": ExtractContext(d.Content, pos, m.window),
				},
			})
		}
	}
	return rels
}

func (m *Mapper) matchContext(d *element.DocumentationElement, c *element.CodeElement, pos int) MatchContext {
	ctx := MatchContext{
		ElementType: d.Type,
		ExactCase:   strings.Contains(d.Content, c.Name),
	}

	if qn := c.QualifiedName; qn != "" && qn != c.Name {
		ctx.QualifiedNamePresent = containsFold(d.Content, qn)
	}

	if bases := c.BaseClasses(); len(bases) > 0 {
		ctx.BaseClassNearby = m.baseClassNearby(d.Content, pos, len(c.Name), bases)
	}

	return ctx
}

// baseClassNearby looks for a base class name inside the window on either
// side of the match. The matched span itself is excluded so a name that
// embeds its base (AdminUser / User) does not corroborate itself.
func (m *Mapper) baseClassNearby(content string, pos, nameLen int, bases []string) bool {
	start := pos - m.window
	if start < 0 {
		start = 0
	}
	matchEnd := pos + nameLen
	if matchEnd > len(content) {
		matchEnd = len(content)
	}
	stop := matchEnd + m.window
	if stop > len(content) {
		stop = len(content)
	}

	before := content[start:pos]
	after := content[matchEnd:stop]
	for _, base := range bases {
		if containsFold(before, base) || containsFold(after, base) {
			return true
		}
	}
	return false
}

// inheritanceRelationships emits INHERITS_FROM child→base for every declared
// base class that resolves to an element in the same set. Resolution is by
// simple name; the first declaration of a name wins, which keeps output
// stable for repeated names.
func (m *Mapper) inheritanceRelationships(code []*element.CodeElement) []element.Relationship {
	byName := make(map[string]*element.CodeElement, len(code))
	for _, c := range code {
		if _, seen := byName[c.Name]; !seen {
			byName[c.Name] = c
		}
	}

	var rels []element.Relationship
	for _, c := range code {
		for _, base := range c.BaseClasses() {
			target, ok := byName[base]
			if !ok || target.ID == c.ID {
				continue
			}
			rels = append(rels, element.Relationship{
				SourceID:   c.ID,
				TargetID:   target.ID,
				Type:       element.RelInheritsFrom,
				SourceType: element.KindCode,
				TargetType: element.KindCode,
				Confidence: 1.0,
				Metadata:   map[string]any{"base_class": base},
			})
		}
	}
	return rels
}

// importRelationships emits IMPORTS module→module when one module's recorded
// imports name another module in the set. An import resolves by its full
// spelling, then by its last path segment ("net/http" → "http"), then by its
// last dotted segment ("os.path" → "path").
func (m *Mapper) importRelationships(code []*element.CodeElement) []element.Relationship {
	byName := make(map[string]*element.CodeElement)
	for _, c := range code {
		if c.Type != element.TypeModule {
			continue
		}
		if _, seen := byName[c.Name]; !seen {
			byName[c.Name] = c
		}
	}

	var rels []element.Relationship
	for _, c := range code {
		if c.Type != element.TypeModule {
			continue
		}
		emitted := make(map[string]bool)
		for _, imp := range c.Imports() {
			target := resolveImport(byName, imp)
			if target == nil || target.ID == c.ID || emitted[target.ID] {
				continue
			}
			emitted[target.ID] = true
			rels = append(rels, element.Relationship{
				SourceID:   c.ID,
				TargetID:   target.ID,
				Type:       element.RelImports,
				SourceType: element.KindCode,
				TargetType: element.KindCode,
				Confidence: 1.0,
				Metadata:   map[string]any{"import": imp},
			})
		}
	}
	return rels
}

func resolveImport(byName map[string]*element.CodeElement, imp string) *element.CodeElement {
	if c, ok := byName[imp]; ok {
		return c
	}
	if i := strings.LastIndex(imp, "/"); i >= 0 {
		if c, ok := byName[imp[i+1:]]; ok {
			return c
		}
	}
	if i := strings.LastIndex(imp, "."); i >= 0 {
		if c, ok := byName[imp[i+1:]]; ok {
			return c
		}
	}
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
