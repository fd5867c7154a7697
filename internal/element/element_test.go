package element

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_Sequential(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator()

	assert.Equal(t, "module_1", gen.Next(TypeModule))
	assert.Equal(t, "class_2", gen.Next(TypeClass))
	assert.Equal(t, "function_3", gen.Next(TypeFunction))
	assert.Equal(t, "section_4", gen.Next(TypeSection))
	assert.Equal(t, "code_block_5", gen.Next(TypeCodeBlock))
	assert.Equal(t, int64(5), gen.Count())
}

func TestIDGenerator_ConcurrentUnique(t *testing.T) {
	t.Parallel()

	// Extraction workers share one run-scoped generator, so concurrent Next
	// calls must never collide.
	gen := NewIDGenerator()

	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	results := make(chan string, workers*perWorker)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				results <- gen.Next(TypeFunction)
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for id := range results {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestElementType_Classification(t *testing.T) {
	t.Parallel()

	for _, typ := range []ElementType{TypeModule, TypeClass, TypeFunction} {
		assert.True(t, typ.IsCode(), "%s should be code", typ)
		assert.False(t, typ.IsDocumentation(), "%s should not be documentation", typ)
	}

	for _, typ := range []ElementType{TypeSection, TypeParagraph, TypeCodeBlock, TypeList} {
		assert.True(t, typ.IsDocumentation(), "%s should be documentation", typ)
		assert.False(t, typ.IsCode(), "%s should not be code", typ)
	}
}

func TestCodeElement_BaseClasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		metadata map[string]any
		want     []string
	}{
		{
			name:     "string slice",
			metadata: map[string]any{"base_classes": []string{"Base", "Mixin"}},
			want:     []string{"Base", "Mixin"},
		},
		{
			name:     "interface slice after JSON round trip",
			metadata: map[string]any{"base_classes": []any{"Base"}},
			want:     []string{"Base"},
		},
		{
			name:     "missing key",
			metadata: map[string]any{"parent_class": "Owner"},
			want:     nil,
		},
		{
			name:     "nil metadata",
			metadata: nil,
			want:     nil,
		},
		{
			name:     "wrong type",
			metadata: map[string]any{"base_classes": "Base"},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			elem := &CodeElement{Metadata: tt.metadata}
			assert.Equal(t, tt.want, elem.BaseClasses())
		})
	}
}

func TestCodeElement_BaseClassesSurviveSerialization(t *testing.T) {
	t.Parallel()

	elem := &CodeElement{
		ID:       "class_1",
		Name:     "Child",
		Type:     TypeClass,
		Metadata: map[string]any{"base_classes": []string{"BaseClass"}},
	}

	data, err := json.Marshal(elem)
	require.NoError(t, err)

	var decoded CodeElement
	require.NoError(t, json.Unmarshal(data, &decoded))

	// json decodes the slice as []interface{}; the accessor must still
	// recover the names.
	assert.Equal(t, []string{"BaseClass"}, decoded.BaseClasses())
}

func TestDocumentationElement_Key(t *testing.T) {
	t.Parallel()

	titled := &DocumentationElement{ID: "section_1", Title: "Getting Started"}
	assert.Equal(t, "Getting Started", titled.Key())

	untitled := &DocumentationElement{ID: "paragraph_2"}
	assert.Equal(t, "paragraph_2", untitled.Key())
}
