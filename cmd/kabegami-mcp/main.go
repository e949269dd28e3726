package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/kabegami/internal/common"
)

// daemonURL resolves the daemon base URL: KABEGAMI_URL wins, then the configured host/port
func daemonURL(config *common.Config) string {
	if url := os.Getenv("KABEGAMI_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
}

func main() {
	var configFiles []string
	configPath := os.Getenv("KABEGAMI_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("kabegami.toml"); err == nil {
			configPath = "kabegami.toml"
		}
	}
	if configPath != "" {
		configFiles = append(configFiles, configPath)
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging on stderr; stdout carries the MCP stream
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	client := newDaemonClient(daemonURL(config))

	mcpServer := server.NewMCPServer(
		"kabegami",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createRotateWallpaperTool(), handleRotateWallpaper(client, logger))
	mcpServer.AddTool(createApplyWallpaperTool(), handleApplyWallpaper(client, logger))
	mcpServer.AddTool(createSearchCatalogTool(), handleSearchCatalog(client, logger))
	mcpServer.AddTool(createListHistoryTool(), handleListHistory(client, logger))
	mcpServer.AddTool(createToggleFavoriteTool(), handleToggleFavorite(client, logger))
	mcpServer.AddTool(createToggleBlockedTool(), handleToggleBlocked(client, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
