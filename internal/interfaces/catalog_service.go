package interfaces

import (
	"context"

	"github.com/ternarybob/kabegami/internal/models"
)

// CatalogClient fetches the full item list from the remote backend
type CatalogClient interface {
	FetchItems(ctx context.Context) ([]models.CatalogItem, error)
}

// CatalogService owns the in-memory catalog snapshot
type CatalogService interface {
	// Refresh replaces the whole snapshot with the backend's current list
	Refresh(ctx context.Context) ([]models.CatalogItem, error)

	// Current returns the snapshot as of the last refresh
	Current() []models.CatalogItem

	// Search returns items whose id or name contains query (case-insensitive)
	Search(query string) []models.CatalogItem

	// Get looks an item up by key in the current snapshot
	Get(key string) (models.CatalogItem, bool)
}

// CatalogStorage persists the last good snapshot for offline startup
type CatalogStorage interface {
	ReplaceAll(ctx context.Context, items []models.CatalogItem) error
	LoadAll(ctx context.Context) ([]models.CatalogItem, error)
}
