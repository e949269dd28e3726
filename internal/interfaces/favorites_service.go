package interfaces

// FavoritesStore persists the favorite and blocked key sets
type FavoritesStore interface {
	IsFavorite(key string) bool
	IsBlocked(key string) bool

	// FavoriteKeys and BlockedKeys return copies of the sets
	FavoriteKeys() []string
	BlockedKeys() []string

	// ToggleFavorite flips membership and returns the new state
	ToggleFavorite(key string) (bool, error)

	// ToggleBlocked flips membership and returns the new state
	ToggleBlocked(key string) (bool, error)
}
