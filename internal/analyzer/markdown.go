package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codeatlas-io/codeatlas/internal/discovery"
	"github.com/codeatlas-io/codeatlas/internal/element"
)

var (
	headingRe     = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	listItemRe    = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	inlineLinkRe  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	codeSymbolRe  = regexp.MustCompile(`(?m)^\s*(?:def|class|func)\s+(\w+)`)
	sentenceEndRe = regexp.MustCompile(`[.!?](\s|$)`)
)

// markdownAnalyzer extracts sections, paragraphs, lists, and code blocks
// from markdown documents, plus front matter, inline references, and a
// document title/summary.
type markdownAnalyzer struct{}

// NewMarkdownAnalyzer creates a new markdown analyzer.
func NewMarkdownAnalyzer() *markdownAnalyzer {
	return &markdownAnalyzer{}
}

func (a *markdownAnalyzer) Name() string {
	return "markdown"
}

func (a *markdownAnalyzer) CanAnalyze(file discovery.FileInfo) bool {
	switch strings.ToLower(filepath.Ext(filePathOf(file))) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func (a *markdownAnalyzer) Analyze(ctx context.Context, file discovery.FileInfo, source []byte, ids *element.IDGenerator) (*Result, error) {
	path := filePathOf(file)

	frontMatter, body, offset, err := parseFrontMatter(string(source))
	if err != nil {
		return nil, err
	}

	s := &mdScanner{ids: ids, filePath: path, offset: offset}
	s.scan(strings.Split(body, "\n"))

	assignParents(s.elements)
	detectReferences(s.elements)

	return &Result{
		File:        file,
		Docs:        s.elements,
		FrontMatter: frontMatter,
		Title:       documentTitle(frontMatter, s.elements),
		Summary:     documentSummary(s.elements),
	}, nil
}

// parseFrontMatter extracts a leading YAML block delimited by --- lines.
// Returns the metadata, the remaining body, and the number of source lines
// the block consumed so element locations stay 1-indexed against the file.
func parseFrontMatter(content string) (map[string]any, string, int, error) {
	trimmed := strings.TrimPrefix(content, "\uFEFF")
	if !strings.HasPrefix(trimmed, "---") {
		return nil, content, 0, nil
	}

	parts := strings.SplitN(trimmed[3:], "\n---", 2)
	if len(parts) < 2 {
		return nil, content, 0, nil
	}

	meta := make(map[string]any)
	if err := yaml.Unmarshal([]byte(parts[0]), &meta); err != nil {
		return nil, "", 0, fmt.Errorf("invalid front matter: %w", err)
	}

	body := strings.TrimPrefix(parts[1], "\n")
	consumed := strings.Count(content[:len(content)-len(body)], "\n")
	return meta, body, consumed, nil
}

// mdScanner walks the document line by line, producing elements in document
// order. Hierarchy and references are filled in by later passes.
type mdScanner struct {
	ids      *element.IDGenerator
	filePath string
	offset   int
	elements []*element.DocumentationElement
}

func (s *mdScanner) lineNo(idx int) int {
	return s.offset + idx + 1
}

func (s *mdScanner) scan(lines []string) {
	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case trimmed == "":
			i++
		case strings.HasPrefix(trimmed, "```"):
			i = s.scanCodeBlock(lines, i)
		case headingRe.MatchString(trimmed):
			s.addHeading(trimmed, i)
			i++
		case listItemRe.MatchString(lines[i]):
			i = s.scanList(lines, i)
		default:
			i = s.scanParagraph(lines, i)
		}
	}
}

func (s *mdScanner) addHeading(line string, idx int) {
	m := headingRe.FindStringSubmatch(line)
	title := strings.TrimSpace(m[2])

	elem := &element.DocumentationElement{
		ID:       s.ids.Next(element.TypeSection),
		Title:    title,
		Type:     element.TypeSection,
		Content:  title,
		Location: element.Location{FilePath: s.filePath, LineStart: s.lineNo(idx), LineEnd: s.lineNo(idx)},
		Metadata: map[string]any{"depth": len(m[1])},
	}
	s.elements = append(s.elements, elem)
}

// scanCodeBlock consumes a fenced block. The element content carries the
// fence markers stripped; an unterminated fence runs to end of document.
func (s *mdScanner) scanCodeBlock(lines []string, start int) int {
	langTag := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[start]), "```"))

	var content []string
	i := start + 1
	for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
		content = append(content, lines[i])
		i++
	}

	end := i
	if i < len(lines) {
		i++ // consume the closing fence
	} else {
		end = len(lines) - 1
	}

	elem := &element.DocumentationElement{
		ID:       s.ids.Next(element.TypeCodeBlock),
		Type:     element.TypeCodeBlock,
		Content:  strings.Join(content, "\n"),
		Location: element.Location{FilePath: s.filePath, LineStart: s.lineNo(start), LineEnd: s.lineNo(end)},
	}
	elem.Title = elem.ID
	if langTag != "" {
		elem.Metadata = map[string]any{"language": langTag}
	}
	s.elements = append(s.elements, elem)
	return i
}

func (s *mdScanner) scanList(lines []string, start int) int {
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			break
		}
		// Continuation lines of a list item stay indented.
		if !listItemRe.MatchString(lines[i]) && !strings.HasPrefix(lines[i], " ") && !strings.HasPrefix(lines[i], "\t") {
			break
		}
		i++
	}

	elem := &element.DocumentationElement{
		ID:       s.ids.Next(element.TypeList),
		Type:     element.TypeList,
		Content:  strings.Join(lines[start:i], "\n"),
		Location: element.Location{FilePath: s.filePath, LineStart: s.lineNo(start), LineEnd: s.lineNo(i - 1)},
	}
	elem.Title = elem.ID
	s.elements = append(s.elements, elem)
	return i
}

func (s *mdScanner) scanParagraph(lines []string, start int) int {
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || headingRe.MatchString(trimmed) ||
			strings.HasPrefix(trimmed, "```") || listItemRe.MatchString(lines[i]) {
			break
		}
		i++
	}

	elem := &element.DocumentationElement{
		ID:       s.ids.Next(element.TypeParagraph),
		Type:     element.TypeParagraph,
		Content:  strings.Join(lines[start:i], "\n"),
		Location: element.Location{FilePath: s.filePath, LineStart: s.lineNo(start), LineEnd: s.lineNo(i - 1)},
	}
	elem.Title = elem.ID
	s.elements = append(s.elements, elem)
	return i
}

// assignParents reconstructs the hierarchy as a post-pass over the finished
// element list: each section's parent is the nearest preceding heading of
// shallower depth, and leaf elements hang off the innermost open section.
func assignParents(elems []*element.DocumentationElement) {
	type openSection struct {
		depth int
		title string
	}
	var stack []openSection

	for _, e := range elems {
		if e.Type == element.TypeSection {
			depth := sectionDepth(e)
			for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				e.Parent = stack[len(stack)-1].title
			}
			stack = append(stack, openSection{depth: depth, title: e.Title})
			continue
		}
		if len(stack) > 0 {
			e.Parent = stack[len(stack)-1].title
		}
	}
}

func sectionDepth(e *element.DocumentationElement) int {
	switch d := e.Metadata["depth"].(type) {
	case int:
		return d
	case float64:
		return int(d)
	}
	return 1
}

// detectReferences scans paragraphs for inline links and code blocks for
// defined symbols.
func detectReferences(elems []*element.DocumentationElement) {
	for _, e := range elems {
		switch e.Type {
		case element.TypeParagraph:
			for _, m := range inlineLinkRe.FindAllStringSubmatch(e.Content, -1) {
				e.References = append(e.References, element.Reference{
					ReferenceType: element.ReferenceFile,
					ReferenceID:   m[2],
				})
			}
		case element.TypeCodeBlock:
			for _, m := range codeSymbolRe.FindAllStringSubmatch(e.Content, -1) {
				e.References = append(e.References, element.Reference{
					ReferenceType: element.ReferenceCode,
					ReferenceID:   m[1],
				})
			}
		}
	}
}

// documentTitle prefers front matter, then the first section heading.
func documentTitle(frontMatter map[string]any, elems []*element.DocumentationElement) string {
	if t, ok := frontMatter["title"].(string); ok && t != "" {
		return t
	}
	for _, e := range elems {
		if e.Type == element.TypeSection {
			return e.Title
		}
	}
	return ""
}

// documentSummary takes the first non-empty paragraph, collapsed to one
// line.
func documentSummary(elems []*element.DocumentationElement) string {
	for _, e := range elems {
		if e.Type != element.TypeParagraph {
			continue
		}
		text := strings.Join(strings.Fields(e.Content), " ")
		if text == "" {
			continue
		}
		return truncateSummary(text)
	}
	return ""
}

// truncateSummary shortens to the first sentence or 100 characters,
// whichever ends sooner, appending an ellipsis when text was dropped.
func truncateSummary(text string) string {
	sentence := text
	if loc := sentenceEndRe.FindStringIndex(text); loc != nil {
		sentence = text[:loc[0]+1]
	}

	runes := []rune(sentence)
	if len(runes) > 100 {
		runes = runes[:100]
	}

	out := string(runes)
	if len(out) < len(text) {
		return out + "..."
	}
	return text
}
