package interfaces

import "github.com/ternarybob/kabegami/internal/models"

// HistoryLedger is the append-only record of rotation attempts
type HistoryLedger interface {
	// Append adds one entry and returns once it is durable
	Append(entry models.HistoryEntry) error

	// RecentEntries returns the last n entries in chronological order
	RecentEntries(n int) []models.HistoryEntry

	// RecentKeys returns the keys of the last n entries
	RecentKeys(n int) []string

	// RecentLocalPaths maps the last n entries onto existing files under the base path
	RecentLocalPaths(n int) []string

	// TrimToMax drops the oldest entries until at most n remain; n <= 0 is a no-op
	TrimToMax(n int) error

	// All returns every entry in chronological order
	All() []models.HistoryEntry

	// BasePath returns the directory entry file names are relative to
	BasePath() string
}
