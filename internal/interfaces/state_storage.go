package interfaces

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a state key has never been written
var ErrKeyNotFound = errors.New("state key not found")

// StateStorage persists the small daemon state that must survive restarts
// (current wallpaper, last change). Keys are case-insensitive.
type StateStorage interface {
	Get(ctx context.Context, key string) (string, error)

	// SetMany writes all values in one transaction; readers never see a partial update
	SetMany(ctx context.Context, values map[string]string) error

	// Snapshot returns every stored value keyed by normalized key
	Snapshot(ctx context.Context) (map[string]string, error)

	Delete(ctx context.Context, key string) error
}
