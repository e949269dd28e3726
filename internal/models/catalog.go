package models

// CatalogItem is one selectable wallpaper from the remote catalog.
// Items are immutable; a refresh replaces the whole snapshot.
type CatalogItem struct {
	ID           string `json:"id" badgerhold:"key"`
	DisplayName  string `json:"name"`
	FullImageURL string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	// Position keeps the backend order when the snapshot is restored from storage
	Position int `json:"-"`
}

// Key returns the catalog key used by favorites, history, and the cache
func (c CatalogItem) Key() string {
	return c.ID
}
