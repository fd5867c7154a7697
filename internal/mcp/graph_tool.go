package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codeatlas-io/codeatlas/internal/graph"
)

// AddGraphTool registers the atlas_graph tool with an MCP server.
func AddGraphTool(s *server.MCPServer, querier graph.Searcher) {
	tool := mcp.NewTool(
		"atlas_graph",
		mcp.WithDescription("Query structural relationships in the code map. Operations: references (what the target points at), referenced_by (what points at the target, e.g. which docs describe a class), children (elements the target contains), parents (containers of the target), dependencies (modules the target imports), dependents (modules importing the target)."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("One of: 'references', 'referenced_by', 'children', 'parents', 'dependencies', 'dependents'")),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Target element id (e.g. 'class_1') or documentation title (e.g. 'User Guide')")),
		mcp.WithNumber("depth",
			mcp.Description("Traversal depth for transitive queries (default: 1, max: 10)")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 100, max: 500)")),
		mcp.WithNumber("min_confidence",
			mcp.Description("Drop edges whose confidence is below this value (0.0-1.0, default: 0)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, graphHandler(querier))
}

func graphHandler(querier graph.Searcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		operation, ok := argsMap["operation"].(string)
		if !ok || operation == "" {
			return mcp.NewToolResultError("operation parameter is required"), nil
		}

		validOps := map[string]graph.QueryOperation{
			"references":    graph.OperationReferences,
			"referenced_by": graph.OperationReferencedBy,
			"children":      graph.OperationChildren,
			"parents":       graph.OperationParents,
			"dependencies":  graph.OperationDependencies,
			"dependents":    graph.OperationDependents,
		}
		op, valid := validOps[operation]
		if !valid {
			return mcp.NewToolResultError(fmt.Sprintf("invalid operation: %s (must be one of: references, referenced_by, children, parents, dependencies, dependents)", operation)), nil
		}

		target, ok := argsMap["target"].(string)
		if !ok || target == "" {
			return mcp.NewToolResultError("target parameter is required"), nil
		}

		req := &graph.QueryRequest{
			Operation:  op,
			Target:     target,
			Depth:      graph.DefaultDepth,
			MaxResults: graph.DefaultMaxResults,
		}

		if depth, ok := argsMap["depth"].(float64); ok {
			d := int(depth)
			if d < 1 {
				d = 1
			} else if d > graph.MaxDepth {
				d = graph.MaxDepth
			}
			req.Depth = d
		}

		if maxResults, ok := argsMap["max_results"].(float64); ok {
			m := int(maxResults)
			if m < 1 {
				m = 1
			} else if m > 500 {
				m = 500
			}
			req.MaxResults = m
		}

		if minConfidence, ok := argsMap["min_confidence"].(float64); ok {
			if minConfidence < 0 {
				minConfidence = 0
			} else if minConfidence > 1 {
				minConfidence = 1
			}
			req.MinConfidence = minConfidence
		}

		response, err := querier.Query(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("graph query failed: %w", err)
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
