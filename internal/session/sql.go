package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"campusevents/internal/store"
)

type sqlBackend struct {
	db *store.DB
}

// NewSQL stores the session in the kv table of a SQLite file or Postgres database.
func NewSQL(db *store.DB) *KV {
	return &KV{name: db.Driver, b: &sqlBackend{db: db}}
}

func (s *sqlBackend) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.Client.QueryRowContext(ctx, s.db.Rebind(`SELECT value FROM kv WHERE key = ?`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *sqlBackend) set(ctx context.Context, pairs map[string]string) error {
	tx, err := s.db.Client.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	q := s.db.Rebind(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	for k, v := range pairs {
		if _, err := tx.ExecContext(ctx, q, k, v); err != nil {
			return fmt.Errorf("upsert %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *sqlBackend) del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, len(keys))
	marks := make([]string, len(keys))
	for i, k := range keys {
		args[i] = k
		marks[i] = "?"
	}
	q := s.db.Rebind(`DELETE FROM kv WHERE key IN (` + strings.Join(marks, ", ") + `)`)
	_, err := s.db.Client.ExecContext(ctx, q, args...)
	return err
}
