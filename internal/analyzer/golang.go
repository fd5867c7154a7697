package analyzer

import (
	"context"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/codeatlas-io/codeatlas/internal/discovery"
	"github.com/codeatlas-io/codeatlas/internal/element"
)

// goAnalyzer extracts packages, types, and functions from Go files. The
// conventions map onto the shared model: the package clause is the MODULE,
// struct and interface declarations are CLASS elements with embedded types
// as base classes, doc comments are docstrings, and exported names are
// PUBLIC.
type goAnalyzer struct {
	language *sitter.Language
}

// NewGoAnalyzer creates a new Go analyzer.
func NewGoAnalyzer() *goAnalyzer {
	return &goAnalyzer{
		language: sitter.NewLanguage(golang.Language()),
	}
}

func (a *goAnalyzer) Name() string {
	return "go"
}

func (a *goAnalyzer) CanAnalyze(file discovery.FileInfo) bool {
	return strings.EqualFold(filepath.Ext(filePathOf(file)), ".go")
}

func (a *goAnalyzer) Analyze(ctx context.Context, file discovery.FileInfo, source []byte, ids *element.IDGenerator) (*Result, error) {
	tree, err := parseTree(a.language, "go", source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	path := filePathOf(file)

	packageName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var packageDoc string
	if clause := findChildByType(root, "package_clause"); clause != nil {
		if ident := findChildByType(clause, "package_identifier"); ident != nil {
			packageName = extractNodeText(ident, source)
		}
		packageDoc = docCommentBefore(clause, source)
	}

	module := &element.CodeElement{
		ID:            ids.Next(element.TypeModule),
		Name:          packageName,
		QualifiedName: packageName,
		Type:          element.TypeModule,
		FilePath:      path,
		LineStart:     1,
		LineEnd:       endLine(root),
		Docstring:     packageDoc,
		Visibility:    element.VisibilityPublic,
		Metadata:      map[string]any{},
	}

	w := &goWalker{
		source:   source,
		ids:      ids,
		filePath: path,
		pkg:      packageName,
		module:   module,
		elements: []*element.CodeElement{module},
		children: make(map[string][]string),
		classIDs: make(map[string]string),
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		switch child.Kind() {
		case "import_declaration":
			w.recordImports(child)
		case "type_declaration":
			w.extractTypeDeclaration(child)
		case "function_declaration":
			w.extractFunction(child, "")
		case "method_declaration":
			w.extractFunction(child, receiverTypeName(child, source))
		case "const_declaration":
			w.recordValueNames(child, "constants")
		case "var_declaration":
			w.recordValueNames(child, "variables")
		}
	}
	w.attachMethods()

	return &Result{File: file, Code: w.elements, Children: w.children}, nil
}

type pendingMethod struct {
	id       string
	receiver string
}

type goWalker struct {
	source   []byte
	ids      *element.IDGenerator
	filePath string
	pkg      string
	module   *element.CodeElement
	elements []*element.CodeElement
	children map[string][]string
	classIDs map[string]string // type name -> class element id
	methods  []pendingMethod
}

// extractTypeDeclaration handles both single and grouped type declarations.
// Struct and interface specs become CLASS elements; alias declarations land
// in the module metadata.
func (w *goWalker) extractTypeDeclaration(decl *sitter.Node) {
	declDoc := docCommentBefore(decl, w.source)
	specs := 0
	for i := 0; i < int(decl.ChildCount()); i++ {
		if k := decl.Child(uint(i)).Kind(); k == "type_spec" || k == "type_alias" {
			specs++
		}
	}

	for i := 0; i < int(decl.ChildCount()); i++ {
		child := decl.Child(uint(i))
		switch child.Kind() {
		case "type_spec":
			w.extractTypeSpec(child, declDoc, specs == 1)
		case "type_alias":
			w.recordTypeAlias(child)
		}
	}
}

func (w *goWalker) extractTypeSpec(spec *sitter.Node, declDoc string, single bool) {
	nameNode := spec.ChildByFieldName("name")
	typeNode := spec.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}

	var bases []string
	switch typeNode.Kind() {
	case "struct_type":
		bases = embeddedStructTypes(typeNode, w.source)
	case "interface_type":
		bases = embeddedInterfaceTypes(typeNode, w.source)
	default:
		// Named basic types carry no structure worth a class element.
		return
	}

	name := extractNodeText(nameNode, w.source)
	doc := docCommentBefore(spec, w.source)
	if doc == "" && single {
		doc = declDoc
	}

	meta := make(map[string]any)
	if len(bases) > 0 {
		meta["base_classes"] = bases
	}
	meta["kind"] = typeNode.Kind()

	elem := &element.CodeElement{
		ID:            w.ids.Next(element.TypeClass),
		Name:          name,
		QualifiedName: qualify(w.pkg, name),
		Type:          element.TypeClass,
		FilePath:      w.filePath,
		LineStart:     startLine(spec),
		LineEnd:       endLine(spec),
		Docstring:     doc,
		Visibility:    goVisibility(name),
		Metadata:      meta,
	}
	w.elements = append(w.elements, elem)
	w.children[w.module.ID] = append(w.children[w.module.ID], elem.ID)
	w.classIDs[name] = elem.ID
}

// extractFunction handles both plain functions and methods. Methods are
// attached to their receiver's class element in a post-pass because Go
// allows a method to precede its type declaration.
func (w *goWalker) extractFunction(node *sitter.Node, receiver string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := extractNodeText(nameNode, w.source)

	meta := make(map[string]any)
	if params := node.ChildByFieldName("parameters"); params != nil {
		meta["parameters"] = extractNodeText(params, w.source)
	}
	if result := node.ChildByFieldName("result"); result != nil {
		meta["return_type"] = extractNodeText(result, w.source)
	}

	prefix := w.pkg
	if receiver != "" {
		prefix = qualify(w.pkg, receiver)
		meta["receiver"] = receiver
		meta["parent_class"] = receiver
	}

	elem := &element.CodeElement{
		ID:            w.ids.Next(element.TypeFunction),
		Name:          name,
		QualifiedName: qualify(prefix, name),
		Type:          element.TypeFunction,
		FilePath:      w.filePath,
		LineStart:     startLine(node),
		LineEnd:       endLine(node),
		Docstring:     docCommentBefore(node, w.source),
		Visibility:    goVisibility(name),
		Metadata:      meta,
	}
	w.elements = append(w.elements, elem)

	if receiver != "" {
		w.methods = append(w.methods, pendingMethod{id: elem.ID, receiver: receiver})
	} else {
		w.children[w.module.ID] = append(w.children[w.module.ID], elem.ID)
	}
}

// attachMethods links methods under their receiver class, falling back to
// the module for receivers declared in another file.
func (w *goWalker) attachMethods() {
	for _, m := range w.methods {
		parent := w.module.ID
		if classID, ok := w.classIDs[m.receiver]; ok {
			parent = classID
		}
		w.children[parent] = append(w.children[parent], m.id)
	}
}

func (w *goWalker) recordImports(decl *sitter.Node) {
	var names []string
	walkTree(decl, func(n *sitter.Node) bool {
		if n.Kind() == "import_spec" {
			if p := n.ChildByFieldName("path"); p != nil {
				names = append(names, strings.Trim(extractNodeText(p, w.source), `"`))
			}
			return false
		}
		return true
	})
	if len(names) == 0 {
		return
	}
	existing, _ := w.module.Metadata["imports"].([]string)
	w.module.Metadata["imports"] = append(existing, names...)
}

func (w *goWalker) recordValueNames(decl *sitter.Node, key string) {
	var names []string
	walkTree(decl, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "const_spec", "var_spec":
			for i := 0; i < int(n.ChildCount()); i++ {
				c := n.Child(uint(i))
				if c.Kind() == "=" {
					break
				}
				if c.Kind() == "identifier" {
					names = append(names, extractNodeText(c, w.source))
				}
			}
			return false
		}
		return true
	})
	if len(names) == 0 {
		return
	}
	existing, _ := w.module.Metadata[key].([]string)
	w.module.Metadata[key] = append(existing, names...)
}

func (w *goWalker) recordTypeAlias(spec *sitter.Node) {
	nameNode := spec.ChildByFieldName("name")
	typeNode := spec.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}
	switch typeNode.Kind() {
	case "type_identifier", "qualified_type":
		aliases, _ := w.module.Metadata["aliases"].(map[string]string)
		if aliases == nil {
			aliases = make(map[string]string)
			w.module.Metadata["aliases"] = aliases
		}
		aliases[extractNodeText(nameNode, w.source)] = extractNodeText(typeNode, w.source)
	}
}

// receiverTypeName returns the bare receiver type of a method declaration,
// with pointer markers and type parameters stripped.
func receiverTypeName(method *sitter.Node, source []byte) string {
	recv := method.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := 0; i < int(recv.ChildCount()); i++ {
		child := recv.Child(uint(i))
		if child.Kind() != "parameter_declaration" {
			continue
		}
		t := child.ChildByFieldName("type")
		if t == nil {
			continue
		}
		s := strings.TrimPrefix(extractNodeText(t, source), "*")
		if idx := strings.Index(s, "["); idx > 0 {
			s = s[:idx]
		}
		return s
	}
	return ""
}

func embeddedStructTypes(structType *sitter.Node, source []byte) []string {
	fields := findChildByType(structType, "field_declaration_list")
	if fields == nil {
		return nil
	}
	var bases []string
	for i := 0; i < int(fields.ChildCount()); i++ {
		f := fields.Child(uint(i))
		if f.Kind() != "field_declaration" {
			continue
		}
		if f.ChildByFieldName("name") != nil {
			continue // named field, not an embedding
		}
		t := f.ChildByFieldName("type")
		if t == nil {
			continue
		}
		bases = append(bases, strings.TrimPrefix(extractNodeText(t, source), "*"))
	}
	return bases
}

func embeddedInterfaceTypes(ifaceType *sitter.Node, source []byte) []string {
	var bases []string
	for i := 0; i < int(ifaceType.ChildCount()); i++ {
		c := ifaceType.Child(uint(i))
		if c.Kind() == "type_elem" {
			bases = append(bases, extractNodeText(c, source))
		}
	}
	return bases
}

// docCommentBefore collects the contiguous comment block immediately above a
// declaration, in source order, with comment markers stripped.
func docCommentBefore(node *sitter.Node, source []byte) string {
	var parts []string
	expect := startLine(node) - 1
	for prev := node.PrevSibling(); prev != nil && prev.Kind() == "comment"; prev = prev.PrevSibling() {
		if endLine(prev) != expect {
			break
		}
		parts = append([]string{cleanComment(extractNodeText(prev, source))}, parts...)
		expect = startLine(prev) - 1
	}
	return strings.Join(parts, "\n")
}

func cleanComment(c string) string {
	if strings.HasPrefix(c, "/*") {
		c = strings.TrimSuffix(strings.TrimPrefix(c, "/*"), "*/")
	} else {
		c = strings.TrimPrefix(c, "//")
	}
	return strings.TrimSpace(c)
}

// goVisibility maps Go's exported/unexported convention onto the shared
// visibility levels. Go has no protected tier.
func goVisibility(name string) element.Visibility {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return element.VisibilityPublic
	}
	return element.VisibilityPrivate
}
