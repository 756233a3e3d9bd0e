package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stellarlinkco/packmate/internal/model"
)

// Store owns the events, inventory and shopping lists. Every write encodes
// the affected collection and saves its slot before the in-memory copy is
// replaced, so memory never runs ahead of what was persisted.
//
// Readers receive deep copies. Callers that need read-modify-write across
// collections serialise themselves; Store only guards its own fields.
type Store struct {
	blobs BlobStore

	mu     sync.RWMutex
	events []model.Event
	inv    *model.Inventory
	lists  []model.ShoppingList
}

// Load reads all three slots from blobs. Missing slots start empty.
func Load(ctx context.Context, blobs BlobStore) (*Store, error) {
	s := &Store{blobs: blobs, inv: model.NewInventory()}

	if err := decodeSlot(ctx, blobs, SlotEvents, &s.events); err != nil {
		return nil, err
	}
	if err := decodeSlot(ctx, blobs, SlotInventory, s.inv); err != nil {
		return nil, err
	}
	if err := decodeSlot(ctx, blobs, SlotShoppingLists, &s.lists); err != nil {
		return nil, err
	}
	for _, l := range s.lists {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("load %s: %w", SlotShoppingLists, err)
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.blobs.Close()
}

// Events returns a copy of every event in insertion order.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.events))
	for i, e := range s.events {
		out[i] = e.Clone()
	}
	return out
}

func (s *Store) Event(id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID == id {
			return e.Clone(), nil
		}
	}
	return model.Event{}, fmt.Errorf("event %s: %w", id, model.ErrNotFound)
}

func (s *Store) Inventory() *model.Inventory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inv.Clone()
}

func (s *Store) ShoppingLists() []model.ShoppingList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ShoppingList, len(s.lists))
	for i, l := range s.lists {
		out[i] = l.Clone()
	}
	return out
}

func (s *Store) ShoppingList(id string) (model.ShoppingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lists {
		if l.ID == id {
			return l.Clone(), nil
		}
	}
	return model.ShoppingList{}, fmt.Errorf("shopping list %s: %w", id, model.ErrNotFound)
}

// ReplaceEvents persists events and makes them the current collection.
func (s *Store) ReplaceEvents(ctx context.Context, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	if err := s.save(ctx, SlotEvents, events); err != nil {
		return err
	}
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	return nil
}

func (s *Store) ReplaceInventory(ctx context.Context, inv *model.Inventory) error {
	if err := s.save(ctx, SlotInventory, inv); err != nil {
		return err
	}
	s.mu.Lock()
	s.inv = inv.Clone()
	s.mu.Unlock()
	return nil
}

func (s *Store) ReplaceShoppingLists(ctx context.Context, lists []model.ShoppingList) error {
	if lists == nil {
		lists = []model.ShoppingList{}
	}
	if err := s.save(ctx, SlotShoppingLists, lists); err != nil {
		return err
	}
	s.mu.Lock()
	s.lists = lists
	s.mu.Unlock()
	return nil
}

func (s *Store) save(ctx context.Context, slot Slot, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}
	return s.blobs.Save(ctx, slot, data)
}
