package analyzer

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-io/codeatlas/internal/discovery"
	"github.com/codeatlas-io/codeatlas/internal/element"
)

// Test Plan for the Go analyzer:
// - Extract the package element with doc comment, imports, constants, variables
// - Extract struct and interface types with doc comments
// - Record embedded types as base classes
// - Attach methods to their receiver type regardless of declaration order
// - Infer visibility from identifier case
// - Keep line numbers pointing at the declaration, not its doc comment

func analyzeGoFixture(t *testing.T) *Result {
	t.Helper()

	source, err := os.ReadFile("../../testdata/code/go/simple.go")
	require.NoError(t, err)

	a := NewGoAnalyzer()
	file := discovery.FileInfo{Path: "../../testdata/code/go/simple.go", RelativePath: "simple.go", FileType: discovery.FileTypeCode}
	result, err := a.Analyze(context.Background(), file, source, element.NewIDGenerator())
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestGoAnalyzer_Package(t *testing.T) {
	t.Parallel()

	result := analyzeGoFixture(t)
	require.NotEmpty(t, result.Code)

	module := result.Code[0]
	assert.Equal(t, element.TypeModule, module.Type)
	assert.Equal(t, "server", module.Name)
	assert.Equal(t, "Package server provides request handling.", module.Docstring)

	imports, _ := module.Metadata["imports"].([]string)
	assert.Equal(t, []string{"fmt", "net/http"}, imports)

	constants, _ := module.Metadata["constants"].([]string)
	assert.Equal(t, []string{"DefaultPort", "DefaultTimeout"}, constants)

	variables, _ := module.Metadata["variables"].([]string)
	assert.Equal(t, []string{"globalConfig"}, variables)
}

func TestGoAnalyzer_Types(t *testing.T) {
	t.Parallel()

	result := analyzeGoFixture(t)

	config := findCode(result.Code, "Config")
	require.NotNil(t, config, "Config struct should be extracted")
	assert.Equal(t, element.TypeClass, config.Type)
	assert.Equal(t, "server.Config", config.QualifiedName)
	assert.Equal(t, "Config holds server settings.", config.Docstring)
	assert.Equal(t, 17, config.LineStart)
	assert.Equal(t, "struct", config.Metadata["kind"])
	assert.Empty(t, config.BaseClasses())

	handler := findCode(result.Code, "Handler")
	require.NotNil(t, handler, "Handler struct should be extracted")
	assert.Equal(t, []string{"Config"}, handler.BaseClasses(), "embedded struct field")

	responder := findCode(result.Code, "Responder")
	require.NotNil(t, responder, "Responder interface should be extracted")
	assert.Equal(t, element.TypeClass, responder.Type)
	assert.Equal(t, "interface", responder.Metadata["kind"])
	assert.Equal(t, []string{"http.Handler"}, responder.BaseClasses(), "embedded interface")
}

func TestGoAnalyzer_Functions(t *testing.T) {
	t.Parallel()

	result := analyzeGoFixture(t)

	ctor := findCode(result.Code, "NewHandler")
	require.NotNil(t, ctor, "NewHandler should be extracted")
	assert.Equal(t, element.TypeFunction, ctor.Type)
	assert.Equal(t, "server.NewHandler", ctor.QualifiedName)
	assert.Equal(t, "NewHandler creates a Handler.", ctor.Docstring)
	assert.Equal(t, "*Handler", ctor.Metadata["return_type"])
	assert.Equal(t, 35, ctor.LineStart)

	serve := findCode(result.Code, "ServeHTTP")
	require.NotNil(t, serve, "method should be extracted")
	assert.Equal(t, "server.Handler.ServeHTTP", serve.QualifiedName)
	assert.Equal(t, "Handler", serve.Metadata["parent_class"])
}

func TestGoAnalyzer_Hierarchy(t *testing.T) {
	t.Parallel()

	result := analyzeGoFixture(t)

	module := result.Code[0]
	handler := findCode(result.Code, "Handler")
	serve := findCode(result.Code, "ServeHTTP")
	require.NotNil(t, handler)
	require.NotNil(t, serve)

	// Methods live under their receiver type, everything else under the
	// package.
	assert.Contains(t, result.Children[handler.ID], serve.ID)
	assert.NotContains(t, result.Children[module.ID], serve.ID)
	assert.Contains(t, result.Children[module.ID], handler.ID)
}

func TestGoAnalyzer_MethodBeforeReceiver(t *testing.T) {
	t.Parallel()

	source := []byte(`package out

func (s *Store) Close() error { return nil }

// Store keeps things.
type Store struct{}
`)
	a := NewGoAnalyzer()
	result, err := a.Analyze(context.Background(), discovery.FileInfo{RelativePath: "out.go"}, source, element.NewIDGenerator())
	require.NoError(t, err)

	store := findCode(result.Code, "Store")
	closeFn := findCode(result.Code, "Close")
	require.NotNil(t, store)
	require.NotNil(t, closeFn)
	assert.Equal(t, "out.Store.Close", closeFn.QualifiedName)
	assert.Contains(t, result.Children[store.ID], closeFn.ID)
}

func TestGoAnalyzer_Visibility(t *testing.T) {
	t.Parallel()

	source := []byte(`package vis

func Exported() {}

func unexported() {}
`)
	a := NewGoAnalyzer()
	result, err := a.Analyze(context.Background(), discovery.FileInfo{RelativePath: "vis.go"}, source, element.NewIDGenerator())
	require.NoError(t, err)

	assert.Equal(t, element.VisibilityPublic, findCode(result.Code, "Exported").Visibility)
	assert.Equal(t, element.VisibilityPrivate, findCode(result.Code, "unexported").Visibility)
}

func TestGoAnalyzer_DocCommentAdjacency(t *testing.T) {
	t.Parallel()

	source := []byte(`package gap

// A stray comment.

// Run starts the loop.
// It blocks until done.
func Run() {}

// Detached from the next declaration.

func Quiet() {}
`)
	a := NewGoAnalyzer()
	result, err := a.Analyze(context.Background(), discovery.FileInfo{RelativePath: "gap.go"}, source, element.NewIDGenerator())
	require.NoError(t, err)

	run := findCode(result.Code, "Run")
	require.NotNil(t, run)
	assert.Equal(t, "Run starts the loop.\nIt blocks until done.", run.Docstring)

	quiet := findCode(result.Code, "Quiet")
	require.NotNil(t, quiet)
	assert.Empty(t, quiet.Docstring, "blank line breaks doc comment adjacency")
}

func TestGoAnalyzer_CanAnalyze(t *testing.T) {
	t.Parallel()

	a := NewGoAnalyzer()
	assert.True(t, a.CanAnalyze(discovery.FileInfo{RelativePath: "internal/x/y.go"}))
	assert.False(t, a.CanAnalyze(discovery.FileInfo{RelativePath: "internal/x/y.py"}))
	assert.False(t, a.CanAnalyze(discovery.FileInfo{RelativePath: "docs/guide.md"}))
}
