package core

import (
	"context"
	"fmt"

	"festivalcore/internal/config"
	"festivalcore/internal/infra/persistence/memory"
	"festivalcore/internal/infra/persistence/postgres"
	"festivalcore/internal/infra/persistence/sqlite"
	"festivalcore/pkg/domain"
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	// Snapshot is the serialisable state of a store.
	Snapshot = memory.Snapshot
)

// StateStore is a PersistentStore whose whole state can be exported and
// replaced. All built-in stores implement it.
type StateStore interface {
	PersistentStore
	ExportState() Snapshot
	RestoreState(ctx context.Context, snapshot Snapshot) error
}

var (
	_ StateStore = (*memory.Store)(nil)
	_ StateStore = (*sqlite.Store)(nil)
	_ StateStore = (*postgres.Store)(nil)
)

// OpenPersistentStore selects a backend from the storage configuration. An
// empty driver selects sqlite. Callers close the returned store when it
// implements io.Closer.
func OpenPersistentStore(ctx context.Context, cfg config.Storage, engine *RulesEngine, opts ...memory.Option) (StateStore, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return memory.NewStore(engine, opts...), nil
	case config.StorageSQLite, "":
		store, err := sqlite.NewStore(cfg.SQLitePath, engine, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN, engine, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
