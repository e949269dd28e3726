package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/kabegami/internal/models"
)

// formatRotationResult formats one rotation attempt as markdown
func formatRotationResult(result models.RotationResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%s** (`%s`)\n", result.Message, result.Outcome))
	if result.Item != nil {
		sb.WriteString(fmt.Sprintf("**Card:** %s (%s)\n", result.Item.DisplayName, result.Item.ID))
	}
	if result.LocalPath != "" {
		sb.WriteString(fmt.Sprintf("**File:** %s\n", result.LocalPath))
	}
	if result.Error != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n", result.Error))
	}
	return sb.String()
}

// formatCatalogItems formats search results as markdown, truncated to limit
func formatCatalogItems(query string, items []models.CatalogItem, limit int) string {
	var sb strings.Builder
	if query == "" {
		sb.WriteString(fmt.Sprintf("## Catalog (%d cards)\n\n", len(items)))
	} else {
		sb.WriteString(fmt.Sprintf("## Cards matching \"%s\" (%d results)\n\n", query, len(items)))
	}

	if len(items) == 0 {
		sb.WriteString("No cards found.\n")
		return sb.String()
	}

	for i, item := range items {
		if i >= limit {
			sb.WriteString(fmt.Sprintf("\n... %d more\n", len(items)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("- `%s` %s\n", item.ID, item.DisplayName))
	}

	return sb.String()
}

// formatHistory formats ledger entries as markdown, newest last
func formatHistory(entries []models.HistoryEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Rotation history (%d entries)\n\n", len(entries)))

	if len(entries) == 0 {
		sb.WriteString("No rotations recorded.\n")
		return sb.String()
	}

	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("- %s `%s` %s\n", entry.At.Local().Format(time.DateTime), entry.Key, entry.Result))
	}

	return sb.String()
}
