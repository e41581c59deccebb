package session

import (
	"context"
	"fmt"

	"campusevents/internal/config"
	"campusevents/internal/store"
)

// Open builds the store selected by cfg.SessionBackend. The returned
// close function releases the underlying connection.
func Open(ctx context.Context, cfg config.App) (*KV, func() error, error) {
	switch cfg.SessionBackend {
	case "memory":
		return NewMemory(), func() error { return nil }, nil
	case "redis":
		r, err := store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return NewRedis(r.Client, cfg.SessionPrefix, cfg.SessionTTL), r.Close, nil
	case "sqlite", "postgres":
		driver := store.DriverSQLite
		if cfg.SessionBackend == "postgres" {
			driver = store.DriverPostgres
		}
		db, err := store.NewDB(ctx, driver, cfg.SessionDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("session db: %w", err)
		}
		return NewSQL(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
