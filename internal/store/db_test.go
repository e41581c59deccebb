package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// TestNewDB_SQLiteCreatesSchema verifies the kv table exists after opening a fresh file.
func TestNewDB_SQLiteCreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	db, err := NewDB(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer db.Close()

	if _, err := db.Client.ExecContext(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)`, "k", "v"); err != nil {
		t.Fatalf("insert into kv: %v", err)
	}
	var v string
	if err := db.Client.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, "k").Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "v" {
		t.Errorf("expected v, got %q", v)
	}
}

// TestNewDB_UnsupportedDriver verifies unknown drivers are rejected before opening.
func TestNewDB_UnsupportedDriver(t *testing.T) {
	if _, err := NewDB(context.Background(), "mysql", "x"); err == nil {
		t.Error("expected error for unsupported driver, got nil")
	}
}

// TestRebind verifies placeholder rewriting per driver.
func TestRebind(t *testing.T) {
	q := `UPDATE kv SET value = ? WHERE key = ?`
	pg := &DB{Driver: DriverPostgres}
	if got, want := pg.Rebind(q), `UPDATE kv SET value = $1 WHERE key = $2`; got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
	lite := &DB{Driver: DriverSQLite}
	if got := lite.Rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
}

// TestRedis_Healthy verifies the ping check against a live and a nil client.
func TestRedis_Healthy(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()
	if !r.Healthy(context.Background()) {
		t.Error("expected healthy redis")
	}
	if _, err := NewRedis("redis://:bad@host:notaport/x"); err == nil {
		t.Error("expected error for malformed url")
	}
	var nilRedis *Redis
	if nilRedis.Healthy(context.Background()) {
		t.Error("nil redis must not be healthy")
	}
}
