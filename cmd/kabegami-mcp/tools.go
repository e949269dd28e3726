package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createRotateWallpaperTool returns the rotate_wallpaper tool definition
func createRotateWallpaperTool() mcp.Tool {
	return mcp.NewTool("rotate_wallpaper",
		mcp.WithDescription("Pick the next wallpaper using the current rotation preferences and apply it"),
	)
}

// createApplyWallpaperTool returns the apply_wallpaper tool definition
func createApplyWallpaperTool() mcp.Tool {
	return mcp.NewTool("apply_wallpaper",
		mcp.WithDescription("Apply a specific card illustration as the wallpaper"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Card id from search_catalog"),
		),
	)
}

// createSearchCatalogTool returns the search_catalog tool definition
func createSearchCatalogTool() mcp.Tool {
	return mcp.NewTool("search_catalog",
		mcp.WithDescription("Search the card catalog by id or name (case-insensitive substring)"),
		mcp.WithString("query",
			mcp.Description("Search text; empty lists the whole catalog"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 20, max: 200)"),
		),
	)
}

// createListHistoryTool returns the list_history tool definition
func createListHistoryTool() mcp.Tool {
	return mcp.NewTool("list_history",
		mcp.WithDescription("List recent rotation attempts, newest last"),
		mcp.WithNumber("limit",
			mcp.Description("Max entries (default: 20)"),
		),
	)
}

// createToggleFavoriteTool returns the toggle_favorite tool definition
func createToggleFavoriteTool() mcp.Tool {
	return mcp.NewTool("toggle_favorite",
		mcp.WithDescription("Add or remove a card from favorites"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Card id"),
		),
	)
}

// createToggleBlockedTool returns the toggle_blocked tool definition
func createToggleBlockedTool() mcp.Tool {
	return mcp.NewTool("toggle_blocked",
		mcp.WithDescription("Block or unblock a card from rotation"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Card id"),
		),
	)
}
