package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

// handleRotateWallpaper implements the rotate_wallpaper tool
func handleRotateWallpaper(client *daemonClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := client.Rotate(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Rotate failed")
			return errorResult(fmt.Sprintf("Rotate error: %v", err)), nil
		}
		return textResult(formatRotationResult(result)), nil
	}
}

// handleApplyWallpaper implements the apply_wallpaper tool
func handleApplyWallpaper(client *daemonClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil || id == "" {
			return errorResult("Error: id parameter is required"), nil
		}

		result, err := client.Apply(ctx, id)
		if err != nil {
			logger.Error().Err(err).Str("id", id).Msg("Apply failed")
			return errorResult(fmt.Sprintf("Apply error: %v", err)), nil
		}
		return textResult(formatRotationResult(result)), nil
	}
}

// handleSearchCatalog implements the search_catalog tool
func handleSearchCatalog(client *daemonClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := request.GetString("query", "")

		limit := request.GetInt("limit", 20)
		if limit <= 0 {
			limit = 20
		}
		if limit > 200 {
			limit = 200
		}

		items, err := client.Search(ctx, query)
		if err != nil {
			logger.Error().Err(err).Msg("Catalog search failed")
			return errorResult(fmt.Sprintf("Search error: %v", err)), nil
		}
		return textResult(formatCatalogItems(query, items, limit)), nil
	}
}

// handleListHistory implements the list_history tool
func handleListHistory(client *daemonClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", 20)
		if limit <= 0 {
			limit = 20
		}

		entries, err := client.History(ctx, limit)
		if err != nil {
			logger.Error().Err(err).Msg("History listing failed")
			return errorResult(fmt.Sprintf("History error: %v", err)), nil
		}
		return textResult(formatHistory(entries)), nil
	}
}

// handleToggleFavorite implements the toggle_favorite tool
func handleToggleFavorite(client *daemonClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil || id == "" {
			return errorResult("Error: id parameter is required"), nil
		}

		state, err := client.ToggleFavorite(ctx, id)
		if err != nil {
			logger.Error().Err(err).Str("id", id).Msg("Toggle favorite failed")
			return errorResult(fmt.Sprintf("Toggle error: %v", err)), nil
		}
		if state {
			return textResult(fmt.Sprintf("Card %s added to favorites.", id)), nil
		}
		return textResult(fmt.Sprintf("Card %s removed from favorites.", id)), nil
	}
}

// handleToggleBlocked implements the toggle_blocked tool
func handleToggleBlocked(client *daemonClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil || id == "" {
			return errorResult("Error: id parameter is required"), nil
		}

		state, err := client.ToggleBlocked(ctx, id)
		if err != nil {
			logger.Error().Err(err).Str("id", id).Msg("Toggle blocked failed")
			return errorResult(fmt.Sprintf("Toggle error: %v", err)), nil
		}
		if state {
			return textResult(fmt.Sprintf("Card %s is now blocked.", id)), nil
		}
		return textResult(fmt.Sprintf("Card %s is no longer blocked.", id)), nil
	}
}
