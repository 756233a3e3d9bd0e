// Package planner composes the store and the consistency engine. Every
// mutation takes the planner lock, applies the change, runs the consistency
// pass and persists before returning.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stellarlinkco/packmate/internal/consistency"
	"github.com/stellarlinkco/packmate/internal/model"
	"github.com/stellarlinkco/packmate/internal/store"
)

var (
	ErrNoEvents = errors.New("no events selected")
	ErrNoItems  = errors.New("selected events require no items")
	ErrNoName   = errors.New("item name is empty")
)

type Planner struct {
	mu     sync.Mutex
	store  *store.Store
	engine *consistency.Engine
	logger zerolog.Logger
}

func New(st *store.Store, engine *consistency.Engine, logger zerolog.Logger) *Planner {
	return &Planner{
		store:  st,
		engine: engine,
		logger: logger.With().Str("component", "planner").Logger(),
	}
}

func (p *Planner) now() time.Time {
	return p.engine.Now()
}

// Now exposes the planner clock so callers share one notion of "today".
func (p *Planner) Now() time.Time {
	return p.now()
}

func cleanItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = model.NormalizeItem(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func normalizeEvent(e model.Event) (model.Event, error) {
	e.Title = strings.TrimSpace(e.Title)
	e.Details = strings.TrimSpace(e.Details)
	e.Items = cleanItems(e.Items)
	if err := e.Validate(); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// AddEvent stores e, assigning an id when it has none, and reconciles it
// against the inventory.
func (p *Planner) AddEvent(ctx context.Context, e model.Event) (model.Event, error) {
	e, err := normalizeEvent(e)
	if err != nil {
		return model.Event{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	events := p.store.Events()
	for _, existing := range events {
		if existing.ID == e.ID {
			return model.Event{}, fmt.Errorf("event %s already exists", e.ID)
		}
	}
	e = p.engine.Reconcile(e, p.store.Inventory())
	if err := p.store.ReplaceEvents(ctx, append(events, e)); err != nil {
		return model.Event{}, fmt.Errorf("add event: %w", err)
	}
	p.logger.Info().Str("event", e.ID).Str("title", e.Title).Int("items", len(e.Items)).Msg("event added")
	return e.Clone(), nil
}

// UpdateEvent replaces the title, date, items and details of the stored
// event with the same id. Completion is taken from the stored event, not
// from e, and the consistency pass runs once after the edit is applied.
func (p *Planner) UpdateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	e, err := normalizeEvent(e)
	if err != nil {
		return model.Event{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	events := p.store.Events()
	idx := indexOfEvent(events, e.ID)
	if idx < 0 {
		return model.Event{}, fmt.Errorf("event %s: %w", e.ID, model.ErrNotFound)
	}
	e.IsCompleted, e.CompletedDate = events[idx].IsCompleted, events[idx].CompletedDate
	events[idx] = p.engine.Reconcile(e, p.store.Inventory())
	if err := p.store.ReplaceEvents(ctx, events); err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}
	return events[idx].Clone(), nil
}

// SetEventCompleted marks an event done or not done by hand. Only events
// without items accept the manual flag; the rest follow the inventory.
func (p *Planner) SetEventCompleted(ctx context.Context, id string, done bool) (model.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	events := p.store.Events()
	idx := indexOfEvent(events, id)
	if idx < 0 {
		return model.Event{}, fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	e := events[idx]
	if len(e.Items) == 0 && e.IsCompleted != done {
		e.IsCompleted = done
		e.CompletedDate = nil
		if done {
			now := p.now()
			e.CompletedDate = &now
		}
	}
	events[idx] = p.engine.Reconcile(e, p.store.Inventory())
	if err := p.store.ReplaceEvents(ctx, events); err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}
	return events[idx].Clone(), nil
}

func (p *Planner) DeleteEvent(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	events := p.store.Events()
	idx := indexOfEvent(events, id)
	if idx < 0 {
		return fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	events = append(events[:idx], events[idx+1:]...)
	if err := p.store.ReplaceEvents(ctx, events); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	p.logger.Info().Str("event", id).Msg("event deleted")
	return nil
}

func indexOfEvent(events []model.Event, id string) int {
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// mutateInventory applies fn to a copy of the inventory and, when it reports
// a change, persists the events the reconcile pass corrected and then the
// inventory. If the inventory save fails the previous events are restored,
// so neither slot records a completion the other contradicts. Callers hold p.mu.
func (p *Planner) mutateInventory(ctx context.Context, op string, fn func(inv *model.Inventory) bool) (bool, error) {
	inv := p.store.Inventory()
	if !fn(inv) {
		return false, nil
	}
	before := p.store.Events()
	events, changed := p.engine.ReconcileAll(before, inv)
	if len(changed) > 0 {
		if err := p.store.ReplaceEvents(ctx, events); err != nil {
			return false, fmt.Errorf("%s: reconcile events: %w", op, err)
		}
	}
	if err := p.store.ReplaceInventory(ctx, inv); err != nil {
		if len(changed) > 0 {
			if rerr := p.store.ReplaceEvents(ctx, before); rerr != nil {
				p.logger.Error().Err(rerr).Str("op", op).Msg("restore events failed")
			}
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if len(changed) > 0 {
		p.logger.Debug().Str("op", op).Strs("events", changed).Msg("event completion updated")
	}
	return true, nil
}

// ReconcileStored runs the consistency pass over the stored events and
// persists any it corrects. Run it once after loading, before serving.
func (p *Planner) ReconcileStored(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	events, changed := p.engine.ReconcileAll(p.store.Events(), p.store.Inventory())
	if len(changed) == 0 {
		return nil, nil
	}
	if err := p.store.ReplaceEvents(ctx, events); err != nil {
		return nil, fmt.Errorf("reconcile stored events: %w", err)
	}
	p.logger.Info().Strs("events", changed).Msg("stored events reconciled")
	return changed, nil
}

// AddItem adds name to the inventory and reports whether it was new.
func (p *Planner) AddItem(ctx context.Context, name string) (bool, error) {
	if model.NormalizeItem(name) == "" {
		return false, ErrNoName
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mutateInventory(ctx, "add item", func(inv *model.Inventory) bool {
		return inv.Add(name)
	})
}

// AddItems adds every name and returns how many were new. Blank names are skipped.
func (p *Planner) AddItems(ctx context.Context, names []string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	added := 0
	_, err := p.mutateInventory(ctx, "add items", func(inv *model.Inventory) bool {
		for _, name := range names {
			if inv.Add(name) {
				added++
			}
		}
		return added > 0
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (p *Planner) RemoveItem(ctx context.Context, name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mutateInventory(ctx, "remove item", func(inv *model.Inventory) bool {
		return inv.Remove(name)
	})
}

func (p *Planner) ClearInventory(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.mutateInventory(ctx, "clear inventory", func(inv *model.Inventory) bool {
		if inv.Len() == 0 {
			return false
		}
		inv.Clear()
		return true
	})
	return err
}

// Inventory returns the held items sorted alphabetically.
func (p *Planner) Inventory() []string {
	return p.store.Inventory().Items()
}

func (p *Planner) HasItem(name string) bool {
	return p.store.Inventory().Has(model.NormalizeItem(name))
}
