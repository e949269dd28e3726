package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// StateStorage stores daemon state values as badgerhold records
type StateStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewStateStorage creates a new StateStorage instance
func NewStateStorage(db *BadgerDB, logger arbor.ILogger) *StateStorage {
	return &StateStorage{
		db:     db,
		logger: logger,
	}
}

func normalizeStateKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get returns the value for key, or interfaces.ErrKeyNotFound
func (s *StateStorage) Get(ctx context.Context, key string) (string, error) {
	var value models.StateValue
	err := s.db.Store().Get(normalizeStateKey(key), &value)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return "", interfaces.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value.Value, nil
}

// SetMany upserts every value inside a single badger transaction
func (s *StateStorage) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		if normalizeStateKey(key) == "" {
			return fmt.Errorf("state key cannot be empty")
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := time.Now().UTC()
	store := s.db.Store()
	err := store.Badger().Update(func(tx *badger.Txn) error {
		for _, key := range keys {
			normalized := normalizeStateKey(key)
			record := &models.StateValue{Key: normalized, Value: values[key], UpdatedAt: now}
			if err := store.TxUpsert(tx, normalized, record); err != nil {
				return fmt.Errorf("failed to write state %q: %w", normalized, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Trace().Strs("keys", keys).Msg("State updated")
	return nil
}

// Snapshot returns all stored values
func (s *StateStorage) Snapshot(ctx context.Context) (map[string]string, error) {
	var records []models.StateValue
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	values := make(map[string]string, len(records))
	for _, record := range records {
		values[record.Key] = record.Value
	}
	return values, nil
}

// Delete removes key, returning interfaces.ErrKeyNotFound when absent
func (s *StateStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Delete(normalizeStateKey(key), &models.StateValue{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete state %q: %w", key, err)
	}
	return nil
}
