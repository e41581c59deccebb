package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"campusevents/internal/config"
	"campusevents/internal/model"
	"campusevents/internal/store"
)

func testUser() model.User {
	college := model.ID("3")
	return model.User{ID: "11", Email: "asha@example.edu", FullName: "Asha Rao", Role: model.RoleStudent, CollegeID: &college, IsActive: true}
}

// backends returns one store per backend flavour, each on fresh storage.
func backends(t *testing.T) map[string]*KV {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := store.NewRedis(mr.Addr())
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	db, err := store.NewDB(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return map[string]*KV{
		"memory": NewMemory(),
		"redis":  NewRedis(r.Client, "test:", 0),
		"sqlite": NewSQL(db),
	}
}

// TestStore_SaveLoadRoundTrip verifies the persisted token and user come back unchanged.
func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u := testUser()
			if err := s.Save(ctx, "tok-1", u); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got := s.Load(ctx)
			if !got.IsAuthenticated() {
				t.Fatalf("expected authenticated session, got %+v", got)
			}
			if got.AccessToken != "tok-1" {
				t.Errorf("expected token tok-1, got %q", got.AccessToken)
			}
			if got.User.ID != u.ID || got.User.Email != u.Email || *got.User.CollegeID != *u.CollegeID {
				t.Errorf("expected user %+v, got %+v", u, *got.User)
			}
		})
	}
}

// TestStore_ClearEmptiesSession verifies Load reports empty after Clear.
func TestStore_ClearEmptiesSession(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(ctx, "tok-1", testUser()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			got := s.Load(ctx)
			if got.AccessToken != "" || got.User != nil {
				t.Errorf("expected empty session, got %+v", got)
			}
			// clearing twice is harmless
			if err := s.Clear(ctx); err != nil {
				t.Errorf("second Clear: %v", err)
			}
		})
	}
}

// TestStore_SaveTokenDropsStaleUser verifies a new token does not inherit the previous user.
func TestStore_SaveTokenDropsStaleUser(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(ctx, "old", testUser()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := s.SaveToken(ctx, "new"); err != nil {
				t.Fatalf("SaveToken: %v", err)
			}
			got := s.Load(ctx)
			if got.AccessToken != "new" {
				t.Errorf("expected token new, got %q", got.AccessToken)
			}
			if got.User != nil || got.IsAuthenticated() {
				t.Errorf("expected no user after SaveToken, got %+v", got.User)
			}
		})
	}
}

// TestStore_LoadCorruptUserIsEmpty verifies an undecodable user blob fails soft.
func TestStore_LoadCorruptUserIsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.b.set(ctx, map[string]string{KeyAccessToken: "tok", KeyUser: "{not json"}); err != nil {
				t.Fatalf("seed: %v", err)
			}
			got := s.Load(ctx)
			if got.AccessToken != "" || got.User != nil {
				t.Errorf("expected empty session for corrupt user, got %+v", got)
			}
		})
	}
}

// TestRedisStore_KeysAndTTL verifies the well-known keys carry the prefix and ttl.
func TestRedisStore_KeysAndTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r, err := store.NewRedis(mr.Addr())
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()

	s := NewRedis(r.Client, "campus:", time.Hour)
	if err := s.Save(ctx, "tok", testUser()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if v, err := mr.Get("campus:" + KeyAccessToken); err != nil || v != "tok" {
		t.Errorf("expected campus:access_token=tok, got %q (%v)", v, err)
	}
	if ttl := mr.TTL("campus:" + KeyUser); ttl != time.Hour {
		t.Errorf("expected 1h ttl on user key, got %v", ttl)
	}
}

// TestRedisStore_LoadFailsSoftWhenDown verifies a closed server yields the empty session.
func TestRedisStore_LoadFailsSoftWhenDown(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r, err := store.NewRedis(mr.Addr())
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()
	s := NewRedis(r.Client, "", 0)
	if err := s.Save(ctx, "tok", testUser()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.Close()
	if got := s.Load(ctx); got.AccessToken != "" || got.User != nil {
		t.Errorf("expected empty session with redis down, got %+v", got)
	}
}

// TestOpen_SelectsBackend verifies backend selection from config.
func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	cfg := config.App{SessionBackend: "sqlite", SessionDSN: filepath.Join(t.TempDir(), "s.db")}
	s, closeFn, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer closeFn()
	if s.name != store.DriverSQLite {
		t.Errorf("expected sqlite store, got %s", s.name)
	}

	if _, _, err := Open(ctx, config.App{SessionBackend: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

// TestStore_SQLitePersistsAcrossReopen verifies the file-backed session survives a restart.
func TestStore_SQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	db, err := store.NewDB(ctx, store.DriverSQLite, path)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	if err := NewSQL(db).Save(ctx, "tok", testUser()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	db.Close()

	db, err = store.NewDB(ctx, store.DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if got := NewSQL(db).Load(ctx); !got.IsAuthenticated() || got.AccessToken != "tok" {
		t.Errorf("expected persisted session, got %+v", got)
	}
}
