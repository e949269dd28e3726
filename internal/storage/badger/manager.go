package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	state   *StateStorage
	catalog *CatalogStorage
	logger  arbor.ILogger
}

// Compile-time assertion
var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		state:   NewStateStorage(db, logger),
		catalog: NewCatalogStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// StateStorage returns the daemon state storage
func (m *Manager) StateStorage() interfaces.StateStorage {
	return m.state
}

// CatalogStorage returns the catalog snapshot storage
func (m *Manager) CatalogStorage() interfaces.CatalogStorage {
	return m.catalog
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
