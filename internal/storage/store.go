package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/oyhutmarket/storefront/internal/config"
)

var (
	ErrNotFound    = errors.New("storage: key not found")
	ErrNotMigrated = errors.New("storage: schema is missing, run migrations")
	ErrEmptyKey    = errors.New("storage: empty key")
)

// Store is a durable key/value store for client state such as carts and
// recent guest orders. Values are opaque JSON documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the store selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverBolt:
		return OpenBolt(cfg.Storage.BoltPath)
	case config.DriverPostgres:
		if cfg.Postgres.AutoMigrate {
			if err := Migrate(cfg.Postgres); err != nil {
				return nil, err
			}
		}
		return NewPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Storage.Driver)
	}
}
