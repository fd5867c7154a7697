package analyzer

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/codeatlas-io/codeatlas/internal/discovery"
	"github.com/codeatlas-io/codeatlas/internal/element"
)

// pythonAnalyzer extracts modules, classes, and functions from Python files.
type pythonAnalyzer struct {
	language *sitter.Language
}

// NewPythonAnalyzer creates a new Python analyzer.
func NewPythonAnalyzer() *pythonAnalyzer {
	return &pythonAnalyzer{
		language: sitter.NewLanguage(python.Language()),
	}
}

func (a *pythonAnalyzer) Name() string {
	return "python"
}

func (a *pythonAnalyzer) CanAnalyze(file discovery.FileInfo) bool {
	return strings.EqualFold(filepath.Ext(filePathOf(file)), ".py")
}

// Analyze walks the syntax tree of one Python file. The module element is
// always first in the result; nested declarations follow in declaration
// order with parent links in Result.Children.
func (a *pythonAnalyzer) Analyze(ctx context.Context, file discovery.FileInfo, source []byte, ids *element.IDGenerator) (*Result, error) {
	tree, err := parseTree(a.language, "python", source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	path := filePathOf(file)
	moduleName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	module := &element.CodeElement{
		ID:            ids.Next(element.TypeModule),
		Name:          moduleName,
		QualifiedName: moduleName,
		Type:          element.TypeModule,
		FilePath:      path,
		LineStart:     1,
		LineEnd:       endLine(root),
		Docstring:     docstringOf(root, source),
		Visibility:    pythonVisibility(moduleName),
		Metadata:      map[string]any{},
	}

	w := &pyWalker{
		source:   source,
		ids:      ids,
		filePath: path,
		module:   module,
		elements: []*element.CodeElement{module},
		children: make(map[string][]string),
	}
	w.walkBody(root, module, moduleName, "")

	return &Result{File: file, Code: w.elements, Children: w.children}, nil
}

// pyWalker carries the per-file walk state. It is created fresh for every
// Analyze call; only the id generator is shared across files.
type pyWalker struct {
	source   []byte
	ids      *element.IDGenerator
	filePath string
	module   *element.CodeElement
	elements []*element.CodeElement
	children map[string][]string
}

// walkBody visits the statements of one scope: the module root or a class
// body. prefix is the qualification context, className the enclosing class
// name when inside one.
func (w *pyWalker) walkBody(body *sitter.Node, parent *element.CodeElement, prefix, className string) {
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(uint(i))
		switch child.Kind() {
		case "class_definition":
			w.extractClass(child, parent, prefix, className)
		case "function_definition":
			w.extractFunction(child, parent, prefix, className)
		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil {
				switch def.Kind() {
				case "class_definition":
					w.extractClass(def, parent, prefix, className)
				case "function_definition":
					w.extractFunction(def, parent, prefix, className)
				}
			}
		case "import_statement", "import_from_statement":
			if parent == w.module {
				w.recordImport(child)
			}
		case "expression_statement":
			if parent == w.module {
				if assign := findChildByType(child, "assignment"); assign != nil {
					w.recordAssignment(assign)
				}
			}
		}
	}
}

// extractClass extracts a class definition and recurses into its body for
// methods and nested classes.
func (w *pyWalker) extractClass(node *sitter.Node, parent *element.CodeElement, prefix, className string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	name := extractNodeText(nameNode, w.source)
	qualified := qualify(prefix, name)
	body := node.ChildByFieldName("body")

	meta := make(map[string]any)
	if bases := w.superclasses(node); len(bases) > 0 {
		meta["base_classes"] = bases
	}
	if className != "" {
		meta["parent_class"] = className
	}

	elem := &element.CodeElement{
		ID:            w.ids.Next(element.TypeClass),
		Name:          name,
		QualifiedName: qualified,
		Type:          element.TypeClass,
		FilePath:      w.filePath,
		LineStart:     startLine(node),
		LineEnd:       endLine(node),
		Docstring:     docstringOf(body, w.source),
		Visibility:    pythonVisibility(name),
		Metadata:      meta,
	}
	w.elements = append(w.elements, elem)
	w.children[parent.ID] = append(w.children[parent.ID], elem.ID)

	if body != nil {
		w.walkBody(body, elem, qualified, name)
	}
}

// extractFunction extracts a function or method definition. Function-local
// definitions are not walked; only module and class scopes introduce
// elements.
func (w *pyWalker) extractFunction(node *sitter.Node, parent *element.CodeElement, prefix, className string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	name := extractNodeText(nameNode, w.source)
	meta := make(map[string]any)
	if params := node.ChildByFieldName("parameters"); params != nil {
		meta["parameters"] = extractNodeText(params, w.source)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		meta["return_type"] = extractNodeText(ret, w.source)
	}
	if className != "" {
		meta["parent_class"] = className
	}
	if first := node.Child(0); first != nil && first.Kind() == "async" {
		meta["async"] = true
	}

	elem := &element.CodeElement{
		ID:            w.ids.Next(element.TypeFunction),
		Name:          name,
		QualifiedName: qualify(prefix, name),
		Type:          element.TypeFunction,
		FilePath:      w.filePath,
		LineStart:     startLine(node),
		LineEnd:       endLine(node),
		Docstring:     docstringOf(node.ChildByFieldName("body"), w.source),
		Visibility:    pythonVisibility(name),
		Metadata:      meta,
	}
	w.elements = append(w.elements, elem)
	w.children[parent.ID] = append(w.children[parent.ID], elem.ID)
}

// superclasses collects base class names from the class argument list.
func (w *pyWalker) superclasses(classNode *sitter.Node) []string {
	args := classNode.ChildByFieldName("superclasses")
	if args == nil {
		return nil
	}

	var bases []string
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(uint(i))
		switch child.Kind() {
		case "identifier", "attribute":
			bases = append(bases, extractNodeText(child, w.source))
		}
	}
	return bases
}

// recordImport adds imported module names to the module element metadata.
func (w *pyWalker) recordImport(node *sitter.Node) {
	var names []string
	switch node.Kind() {
	case "import_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(uint(i))
			switch child.Kind() {
			case "dotted_name":
				names = append(names, extractNodeText(child, w.source))
			case "aliased_import":
				if n := child.ChildByFieldName("name"); n != nil {
					names = append(names, extractNodeText(n, w.source))
				}
			}
		}
	case "import_from_statement":
		if m := node.ChildByFieldName("module_name"); m != nil {
			names = append(names, extractNodeText(m, w.source))
		}
	}
	if len(names) == 0 {
		return
	}

	existing, _ := w.module.Metadata["imports"].([]string)
	w.module.Metadata["imports"] = append(existing, names...)
}

// recordAssignment captures module-level name-establishing assignments:
// ALL_CAPS names as constants, identifier-to-identifier bindings as aliases.
func (w *pyWalker) recordAssignment(assign *sitter.Node) {
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	name := extractNodeText(left, w.source)

	if isConstantName(name) {
		consts, _ := w.module.Metadata["constants"].([]string)
		w.module.Metadata["constants"] = append(consts, name)
		return
	}

	right := assign.ChildByFieldName("right")
	if right == nil {
		return
	}
	switch right.Kind() {
	case "identifier", "attribute":
		aliases, _ := w.module.Metadata["aliases"].(map[string]string)
		if aliases == nil {
			aliases = make(map[string]string)
			w.module.Metadata["aliases"] = aliases
		}
		aliases[name] = extractNodeText(right, w.source)
	}
}

// docstringOf returns the docstring of a scope body: the first statement
// when it is a bare string literal, with quotes stripped. An absent
// docstring is the empty string.
func docstringOf(scope *sitter.Node, source []byte) string {
	if scope == nil {
		return ""
	}
	for i := 0; i < int(scope.ChildCount()); i++ {
		child := scope.Child(uint(i))
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		if child.Kind() != "expression_statement" {
			return ""
		}
		str := findChildByType(child, "string")
		if str == nil {
			return ""
		}
		return strings.TrimSpace(stripStringQuotes(extractNodeText(str, source)))
	}
	return ""
}

// stripStringQuotes removes matching quote markers from a string literal.
func stripStringQuotes(s string) string {
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2 {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// pythonVisibility infers the access level from the underscore naming
// convention: dunder names are public API hooks, a double leading underscore
// is private (name-mangled), a single leading underscore is protected.
func pythonVisibility(name string) element.Visibility {
	switch {
	case len(name) >= 5 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		return element.VisibilityPublic
	case strings.HasPrefix(name, "__"):
		return element.VisibilityPrivate
	case strings.HasPrefix(name, "_"):
		return element.VisibilityProtected
	default:
		return element.VisibilityPublic
	}
}

// isConstantName checks if a name follows Python constant naming convention (ALL_CAPS).
func isConstantName(name string) bool {
	if len(name) == 0 {
		return false
	}
	for _, ch := range name {
		if ch >= 'a' && ch <= 'z' {
			return false
		}
	}
	return true
}

// qualify joins a qualification prefix and a name, degrading to the bare
// name when no context exists.
func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// filePathOf prefers the relative path for reporting, falling back to the
// absolute path when discovery did not supply one.
func filePathOf(file discovery.FileInfo) string {
	if file.RelativePath != "" {
		return file.RelativePath
	}
	return file.Path
}
