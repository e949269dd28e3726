package interfaces

// StorageManager owns the embedded database and the storages built on it
type StorageManager interface {
	StateStorage() StateStorage
	CatalogStorage() CatalogStorage
	Close() error
}
