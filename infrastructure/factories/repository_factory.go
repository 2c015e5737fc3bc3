package factories

import (
	"fmt"

	"nhbrcforms/database"
	"nhbrcforms/domain/contracts"
	"nhbrcforms/infrastructure/config"
	"nhbrcforms/infrastructure/repositories"
)

// Counter backends accepted by COUNTER_BACKEND.
const (
	CounterBackendSqlite = "sqlite"
	CounterBackendFile   = "file"
)

// RepositoryFactory builds the persistence adapters used by the services.
type RepositoryFactory struct {
	db *database.Database
}

// NewRepositoryFactory creates a factory over an opened database.
func NewRepositoryFactory(db *database.Database) *RepositoryFactory {
	return &RepositoryFactory{db: db}
}

// CounterStore returns the reference counter store selected by cfg.
func (f *RepositoryFactory) CounterStore(cfg config.CounterConfig) (contracts.CounterStore, error) {
	switch cfg.Backend {
	case "", CounterBackendSqlite:
		return repositories.NewSqliteCounterStore(f.db), nil
	case CounterBackendFile:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("counter backend %q requires COUNTER_FILE_PATH", cfg.Backend)
		}
		return repositories.NewFileCounterStore(cfg.FilePath), nil
	default:
		return nil, fmt.Errorf("unknown counter backend %q", cfg.Backend)
	}
}

// SubmissionRepository returns the local submission record store.
func (f *RepositoryFactory) SubmissionRepository() contracts.SubmissionRepository {
	return repositories.NewSqliteSubmissionRepository(f.db)
}
