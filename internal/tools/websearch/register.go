package websearch

import (
	"context"
	"fmt"

	"dashweave/internal/tools"
)

// RegisterAll registers the search tools with the given registry.
func RegisterAll(registry *tools.Registry, client *Client) error {
	allTools := []*tools.Tool{
		WebSearchTool(client),
		ImageSearchTool(client),
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	return nil
}

// WebSearchTool returns the web search tool.
func WebSearchTool(client *Client) *tools.Tool {
	return &tools.Tool{
		Name:        "websearch.web_search",
		Description: "Search the web for information",
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}
			count := intArg(args, "count", 10)
			return client.WebSearch(ctx, query, count)
		},
	}
}

// ImageSearchTool returns the image search tool.
func ImageSearchTool(client *Client) *tools.Tool {
	return &tools.Tool{
		Name:        "websearch.image_search",
		Description: "Search for images",
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}
			limit := intArg(args, "limit", 10)
			return client.ImageSearch(ctx, query, limit)
		},
	}
}

// intArg reads an integer argument that arrives as a JSON number.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		if int(v) > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	}
	return def
}
