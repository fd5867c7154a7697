package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codeatlas-io/codeatlas/internal/search"
)

// AddSearchTool registers the atlas_search tool with an MCP server.
func AddSearchTool(s *server.MCPServer, searcher search.Searcher) {
	tool := mcp.NewTool(
		"atlas_search",
		mcp.WithDescription(`Full-text search over the code map using bleve query syntax.

Indexed fields: name, content (docstrings and documentation text),
file_path, element_type, kind.

Supports:
- Field scoping: name:UserService, content:"rate limit", file_path:auth
- Boolean operators: AND, OR, NOT, +required, -excluded
- Phrase search: "error handling"
- Wildcards: User* (prefix matching)

Examples:
- UserService - find the element by name or mention
- content:"token budget" AND kind:documentation - docs only
- name:connect AND element_type:function - functions named connect`),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Bleve query string with field scoping and boolean operators")),
		mcp.WithString("kind",
			mcp.Description("Restrict results to 'code' or 'documentation' elements")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (1-100, default: 15)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, searchHandler(searcher))
}

// searchResponse is the JSON payload returned by atlas_search.
type searchResponse struct {
	Query    string        `json:"query"`
	Kind     string        `json:"kind,omitempty"`
	Results  []*search.Hit `json:"results"`
	Total    int           `json:"total"`
	Metadata ResponseMeta  `json:"metadata"`
}

// ResponseMeta carries timing and provenance for tool responses.
type ResponseMeta struct {
	TookMs int    `json:"took_ms"`
	Source string `json:"source"`
}

func searchHandler(searcher search.Searcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()

		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		query, ok := argsMap["query"].(string)
		if !ok || query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		kind := ""
		if k, ok := argsMap["kind"].(string); ok {
			switch k {
			case "", "code", "documentation":
				kind = k
			default:
				return mcp.NewToolResultError(fmt.Sprintf("invalid kind: %s (must be 'code' or 'documentation')", k)), nil
			}
		}

		limit := 15
		if l, ok := argsMap["limit"].(float64); ok {
			limit = int(l)
		}

		hits, err := searcher.Search(ctx, query, kind, limit)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		if hits == nil {
			hits = []*search.Hit{}
		}

		response := &searchResponse{
			Query:   query,
			Kind:    kind,
			Results: hits,
			Total:   len(hits),
			Metadata: ResponseMeta{
				TookMs: int(time.Since(startTime).Milliseconds()),
				Source: "search",
			},
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
