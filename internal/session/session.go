// Package session persists the access token and cached user profile
// between runs and hands the token to outgoing API requests.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"campusevents/internal/model"
)

// Well-known storage keys, shared with the mobile and web clients.
const (
	KeyAccessToken = "access_token"
	KeyUser        = "user"
)

// Store is the persisted session.
//
// Load never fails: a missing, unreadable or undecodable session is
// reported as the empty session. Callers check IsAuthenticated.
type Store interface {
	Save(ctx context.Context, token string, user model.User) error
	SaveToken(ctx context.Context, token string) error
	Load(ctx context.Context) model.Session
	Clear(ctx context.Context) error
}

// backend is the key-value primitive each storage flavour provides.
type backend interface {
	get(ctx context.Context, key string) (string, bool, error)
	set(ctx context.Context, pairs map[string]string) error
	del(ctx context.Context, keys ...string) error
}

// KV implements Store over a key-value backend.
type KV struct {
	name string
	b    backend
}

// Save persists token and user together.
func (s *KV) Save(ctx context.Context, token string, user model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.b.set(ctx, map[string]string{KeyAccessToken: token, KeyUser: string(raw)}); err != nil {
		return fmt.Errorf("%s session save: %w", s.name, err)
	}
	return nil
}

// SaveToken persists a token before the user profile is known and drops
// any cached profile that belonged to a previous token.
func (s *KV) SaveToken(ctx context.Context, token string) error {
	if err := s.b.del(ctx, KeyUser); err != nil {
		return fmt.Errorf("%s session save token: %w", s.name, err)
	}
	if err := s.b.set(ctx, map[string]string{KeyAccessToken: token}); err != nil {
		return fmt.Errorf("%s session save token: %w", s.name, err)
	}
	return nil
}

// Load returns the stored session, or the empty session on any failure.
func (s *KV) Load(ctx context.Context) model.Session {
	token, _, err := s.b.get(ctx, KeyAccessToken)
	if err != nil {
		log.Printf("%s session: read token: %v", s.name, err)
		return model.Session{}
	}
	raw, ok, err := s.b.get(ctx, KeyUser)
	if err != nil {
		log.Printf("%s session: read user: %v", s.name, err)
		return model.Session{}
	}
	sess := model.Session{AccessToken: token}
	if !ok {
		return sess
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Printf("%s session: discarding unreadable user: %v", s.name, err)
		return model.Session{}
	}
	sess.User = &u
	return sess
}

// Clear removes token and user.
func (s *KV) Clear(ctx context.Context) error {
	if err := s.b.del(ctx, KeyAccessToken, KeyUser); err != nil {
		return fmt.Errorf("%s session clear: %w", s.name, err)
	}
	return nil
}
