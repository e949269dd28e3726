package models

// Favorites holds the two independently toggled key sets.
// A key may be both a favorite and blocked.
type Favorites struct {
	FavoriteKeys []string `json:"favorites"`
	BlockedKeys  []string `json:"blocked"`
}
