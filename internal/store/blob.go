// Package store holds the authoritative in-memory collections and persists
// each of them to a named blob slot.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Slot names one persisted collection.
type Slot string

const (
	SlotEvents        Slot = "events"
	SlotInventory     Slot = "inventory"
	SlotShoppingLists Slot = "shopping_lists"
)

// Slots lists every slot in load order.
var Slots = []Slot{SlotEvents, SlotInventory, SlotShoppingLists}

// BlobStore is the persistence collaborator. Load returns (nil, nil) for a
// slot that has never been written.
type BlobStore interface {
	Load(ctx context.Context, slot Slot) ([]byte, error)
	Save(ctx context.Context, slot Slot, data []byte) error
	Close() error
}

// Open returns the blob store for backend ("sqlite", "file" or "memory").
func Open(backend, path string) (BlobStore, error) {
	switch backend {
	case "", "sqlite":
		return NewSQLiteBlobStore(path)
	case "file":
		return NewFileBlobStore(path)
	case "memory":
		return NewMemoryBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// FileBlobStore keeps one JSON file per slot under a directory.
type FileBlobStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileBlobStore{dir: dir}, nil
}

func (f *FileBlobStore) path(slot Slot) string {
	return filepath.Join(f.dir, string(slot)+".json")
}

func (f *FileBlobStore) Load(_ context.Context, slot Slot) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", slot, err)
	}
	return data, nil
}

// Save writes through a temp file and rename so a crash never leaves a torn slot.
func (f *FileBlobStore) Save(_ context.Context, slot Slot, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tmp := f.path(slot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", slot, err)
	}
	if err := os.Rename(tmp, f.path(slot)); err != nil {
		return fmt.Errorf("rename %s: %w", slot, err)
	}
	return nil
}

func (f *FileBlobStore) Close() error { return nil }

// MemoryBlobStore is a process-local BlobStore used by tests and the
// "memory" backend.
type MemoryBlobStore struct {
	mu    sync.Mutex
	slots map[Slot][]byte
	// SaveErr, when set, fails every Save.
	SaveErr error
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{slots: make(map[Slot][]byte)}
}

func (m *MemoryBlobStore) Load(_ context.Context, slot Slot) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBlobStore) Save(_ context.Context, slot Slot, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.slots[slot] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBlobStore) Close() error { return nil }

func decodeSlot(ctx context.Context, blobs BlobStore, slot Slot, v any) error {
	data, err := blobs.Load(ctx, slot)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", slot, err)
	}
	return nil
}
