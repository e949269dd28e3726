// Package history keeps the append-only ledger of rotation attempts,
// persisted as a single JSON document replaced atomically on every write.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

// Ledger implements interfaces.HistoryLedger
type Ledger struct {
	mu     sync.RWMutex
	path   string
	state  models.HistoryState
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.HistoryLedger = (*Ledger)(nil)

// NewLedger loads the ledger at path. The base path is resolved once: the
// stored value wins, otherwise defaultBasePath (the cache root).
// A missing file starts empty; an unreadable file is logged and starts empty.
func NewLedger(path string, defaultBasePath string, logger arbor.ILogger) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}

	l := &Ledger{
		path:   path,
		logger: logger,
	}

	state, err := l.load()
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to read history, starting empty")
		state = models.HistoryState{}
	}
	if strings.TrimSpace(state.BasePath) == "" {
		state.BasePath = defaultBasePath
	}
	if state.Entries == nil {
		state.Entries = []models.HistoryEntry{}
	}
	l.state = state

	logger.Debug().
		Str("path", path).
		Str("base_path", state.BasePath).
		Int("entries", len(state.Entries)).
		Msg("History ledger loaded")

	return l, nil
}

func (l *Ledger) load() (models.HistoryState, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.HistoryState{}, nil
		}
		return models.HistoryState{}, fmt.Errorf("failed to read history file: %w", err)
	}
	return StateReader{}.Read(data)
}

// save must be called with the write lock held
func (l *Ledger) save(state models.HistoryState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := common.WriteFileAtomic(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

// Append records one entry. It returns only after the new state is on disk;
// on error the in-memory ledger is unchanged.
func (l *Ledger) Append(entry models.HistoryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := models.HistoryState{
		BasePath: l.state.BasePath,
		Entries:  make([]models.HistoryEntry, len(l.state.Entries), len(l.state.Entries)+1),
	}
	copy(next.Entries, l.state.Entries)
	next.Entries = append(next.Entries, entry)

	if err := l.save(next); err != nil {
		return err
	}
	l.state = next
	return nil
}

// TrimToMax drops the oldest entries until at most n remain
func (l *Ledger) TrimToMax(n int) error {
	if n <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.state.Entries) <= n {
		return nil
	}

	excess := len(l.state.Entries) - n
	next := models.HistoryState{
		BasePath: l.state.BasePath,
		Entries:  append([]models.HistoryEntry{}, l.state.Entries[excess:]...),
	}
	if err := l.save(next); err != nil {
		return err
	}
	l.state = next

	l.logger.Debug().Int("removed", excess).Int("remaining", n).Msg("History trimmed")
	return nil
}

// RecentEntries returns the last n entries, oldest first
func (l *Ledger) RecentEntries(n int) []models.HistoryEntry {
	if n <= 0 {
		return []models.HistoryEntry{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	start := len(l.state.Entries) - n
	if start < 0 {
		start = 0
	}
	return append([]models.HistoryEntry{}, l.state.Entries[start:]...)
}

// RecentKeys returns the keys of the last n entries, whatever their outcome
func (l *Ledger) RecentKeys(n int) []string {
	entries := l.RecentEntries(n)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// RecentLocalPaths joins the file names of the last n entries onto the base
// path, keeping only names that are set and files that exist
func (l *Ledger) RecentLocalPaths(n int) []string {
	entries := l.RecentEntries(n)
	base := l.BasePath()

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.FileName) == "" {
			continue
		}
		p := filepath.Join(base, e.FileName)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			paths = append(paths, p)
		}
	}
	return paths
}

// All returns every entry, oldest first
func (l *Ledger) All() []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.HistoryEntry{}, l.state.Entries...)
}

// BasePath returns the directory entry file names resolve against
func (l *Ledger) BasePath() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.BasePath
}
