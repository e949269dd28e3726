package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/models"
)

// CatalogStorage persists the last good catalog snapshot
type CatalogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCatalogStorage creates a new CatalogStorage instance
func NewCatalogStorage(db *BadgerDB, logger arbor.ILogger) *CatalogStorage {
	return &CatalogStorage{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll swaps the stored snapshot for items in one transaction
func (s *CatalogStorage) ReplaceAll(ctx context.Context, items []models.CatalogItem) error {
	store := s.db.Store()

	err := store.Badger().Update(func(tx *badger.Txn) error {
		if err := store.TxDeleteMatching(tx, &models.CatalogItem{}, nil); err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
		for i, item := range items {
			item.Position = i
			if err := store.TxUpsert(tx, item.ID, &item); err != nil {
				return fmt.Errorf("failed to store catalog item %s: %w", item.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Int("count", len(items)).Msg("Catalog snapshot persisted")
	return nil
}

// LoadAll returns the stored snapshot in backend order
func (s *CatalogStorage) LoadAll(ctx context.Context) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	if err := s.db.Store().Find(&items, nil); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items, nil
}
