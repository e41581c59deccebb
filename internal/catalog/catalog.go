// Package catalog backs the event browser: the event list annotated with
// the caller's registrations, searchable by text and type.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"campusevents/internal/model"
)

// Source is the part of the API the browser reads.
type Source interface {
	Events(ctx context.Context, skip, limit int) ([]model.EventWithStats, error)
	MyRegistrations(ctx context.Context) ([]model.Registration, error)
	RegisterForEvent(ctx context.Context, eventID model.ID) (model.Registration, error)
}

// Listing is one row of the browser.
type Listing struct {
	Event      model.EventWithStats
	Registered bool
	Past       bool
}

// Catalog holds one page of events.
type Catalog struct {
	src Source
	now time.Time

	mu         sync.RWMutex
	events     []model.EventWithStats
	registered map[model.ID]bool
}

// Load fetches a page of events and the caller's registrations concurrently.
func Load(ctx context.Context, src Source, skip, limit int) (*Catalog, error) {
	var (
		events []model.EventWithStats
		regs   []model.Registration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if events, err = src.Events(gctx, skip, limit); err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if regs, err = src.MyRegistrations(gctx); err != nil {
			return fmt.Errorf("load registrations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	registered := make(map[model.ID]bool, len(regs))
	for _, r := range regs {
		registered[r.EventID] = true
	}
	return &Catalog{src: src, now: time.Now(), events: events, registered: registered}, nil
}

// Listings returns every event in server order.
func (c *Catalog) Listings() []Listing {
	return c.Search("", "")
}

// Search matches term case-insensitively against title, description,
// location and college name. An empty eventType matches every type.
func (c *Catalog) Search(term string, eventType model.EventType) []Listing {
	term = strings.ToLower(strings.TrimSpace(term))
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Listing
	for _, e := range c.events {
		if eventType != "" && e.Type != eventType {
			continue
		}
		if term != "" && !matches(e, term) {
			continue
		}
		out = append(out, Listing{Event: e, Registered: c.registered[e.ID], Past: e.IsPast(c.now)})
	}
	return out
}

func matches(e model.EventWithStats, term string) bool {
	for _, field := range []string{e.Title, e.Description, e.Location, e.CollegeName} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Register signs the caller up and marks the event registered locally.
func (c *Catalog) Register(ctx context.Context, eventID model.ID) (model.Registration, error) {
	reg, err := c.src.RegisterForEvent(ctx, eventID)
	if err != nil {
		return model.Registration{}, err
	}
	c.mu.Lock()
	c.registered[eventID] = true
	c.mu.Unlock()
	return reg, nil
}
