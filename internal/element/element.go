package element

// ElementType identifies the structural kind of an extracted element.
type ElementType string

const (
	// Code element types.
	TypeModule   ElementType = "MODULE"
	TypeClass    ElementType = "CLASS"
	TypeFunction ElementType = "FUNCTION"

	// Documentation element types.
	TypeSection   ElementType = "SECTION"
	TypeParagraph ElementType = "PARAGRAPH"
	TypeCodeBlock ElementType = "CODE_BLOCK"
	TypeList      ElementType = "LIST"
)

// IsCode reports whether the type belongs to the code side of the model.
func (t ElementType) IsCode() bool {
	switch t {
	case TypeModule, TypeClass, TypeFunction:
		return true
	}
	return false
}

// IsDocumentation reports whether the type belongs to the documentation side.
func (t ElementType) IsDocumentation() bool {
	switch t {
	case TypeSection, TypeParagraph, TypeCodeBlock, TypeList:
		return true
	}
	return false
}

// Visibility is the access level inferred from a naming convention.
// It is a heuristic, not enforced access control.
type Visibility string

const (
	VisibilityPublic    Visibility = "PUBLIC"
	VisibilityProtected Visibility = "PROTECTED"
	VisibilityPrivate   Visibility = "PRIVATE"
)

// Element source kinds, used as relationship endpoint types and graph node types.
const (
	KindCode          = "code"
	KindDocumentation = "documentation"
)

// CodeElement is a structural unit extracted from a source file: a module,
// class, or function. Elements are created during the tree walk of one file
// and are immutable once the walk completes.
type CodeElement struct {
	ID            string         `json:"id"`                       // Run-unique id from the IDGenerator
	Name          string         `json:"name"`                     // Simple declared name
	QualifiedName string         `json:"qualified_name,omitempty"` // module.Class.member form
	Type          ElementType    `json:"element_type"`
	FilePath      string         `json:"file_path"`
	LineStart     int            `json:"line_start"`          // 1-indexed
	LineEnd       int            `json:"line_end,omitempty"`  // 0 until the declaring scope is closed
	Docstring     string         `json:"docstring,omitempty"` // Empty when the scope has no docstring
	Visibility    Visibility     `json:"visibility"`
	Metadata      map[string]any `json:"metadata,omitempty"` // base_classes, parent_class, parameters, ...
}

// BaseClasses returns the declared base class names from metadata. It accepts
// both the in-memory []string form and the []interface{} form produced by a
// JSON round trip.
func (e *CodeElement) BaseClasses() []string {
	return e.metadataStrings("base_classes")
}

// Imports returns the module's recorded import names from metadata. Only
// MODULE elements carry imports.
func (e *CodeElement) Imports() []string {
	return e.metadataStrings("imports")
}

func (e *CodeElement) metadataStrings(key string) []string {
	if e.Metadata == nil {
		return nil
	}
	switch v := e.Metadata[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Location is the file position of a documentation element.
type Location struct {
	FilePath  string `json:"file_path"`
	LineStart int    `json:"line_start"` // 1-indexed
	LineEnd   int    `json:"line_end"`
}

// ReferenceType classifies a detected inline reference.
type ReferenceType string

const (
	ReferenceFile ReferenceType = "file" // Link target, e.g. [text](path)
	ReferenceCode ReferenceType = "code" // Symbol defined inside a code block
)

// Reference is a detected outbound reference from a documentation element.
type Reference struct {
	ReferenceType ReferenceType `json:"reference_type"`
	ReferenceID   string        `json:"reference_id"`
}

// DocumentationElement is a structural unit extracted from a markup document:
// a section, paragraph, code block, or list. Hierarchy is reconstructed via
// the Parent title in a post-pass, not via pointers, because elements are
// produced in a single linear pass over the document.
type DocumentationElement struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Type       ElementType    `json:"element_type"`
	Location   Location       `json:"location"`
	Content    string         `json:"content"`          // Raw text; code blocks carry fence markers stripped
	Parent     string         `json:"parent,omitempty"` // Title of the nearest shallower section; weak reference
	References []Reference    `json:"references,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"` // language, depth, ...
}

// Key returns the identifier this element is addressed by in relationships:
// the title when present, otherwise the generated id. Section titles are not
// guaranteed unique across documents; colliding keys merge under the graph's
// upsert semantics.
func (e *DocumentationElement) Key() string {
	if e.Title != "" {
		return e.Title
	}
	return e.ID
}

// RelationshipType classifies a directed edge between two elements.
type RelationshipType string

const (
	RelReferences   RelationshipType = "REFERENCES"
	RelDocuments    RelationshipType = "DOCUMENTS"
	RelContains     RelationshipType = "CONTAINS"
	RelImplements   RelationshipType = "IMPLEMENTS"
	RelInheritsFrom RelationshipType = "INHERITS_FROM"
	RelImports      RelationshipType = "IMPORTS"
	RelRelatesTo    RelationshipType = "RELATES_TO"
)

// Relationship is a directed, typed, confidence-scored edge between two
// elements. Confidence is always set by the producer, never defaulted
// downstream.
type Relationship struct {
	SourceID   string           `json:"source_id"`
	TargetID   string           `json:"target_id"`
	Type       RelationshipType `json:"relationship_type"`
	SourceType string           `json:"source_type"` // "code" or "documentation"
	TargetType string           `json:"target_type"`
	Confidence float64          `json:"confidence"` // Closed interval [0.0, 1.0]
	Metadata   map[string]any   `json:"metadata,omitempty"`
}
