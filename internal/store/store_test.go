package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarlinkco/packmate/internal/model"
)

func blobBackends(t *testing.T) map[string]BlobStore {
	t.Helper()
	sqlite, err := NewSQLiteBlobStore(filepath.Join(t.TempDir(), "packmate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	file, err := NewFileBlobStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	return map[string]BlobStore{
		"sqlite": sqlite,
		"file":   file,
		"memory": NewMemoryBlobStore(),
	}
}

func TestBlobStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	for name, blobs := range blobBackends(t) {
		t.Run(name, func(t *testing.T) {
			data, err := blobs.Load(ctx, SlotEvents)
			require.NoError(t, err)
			assert.Nil(t, data)

			require.NoError(t, blobs.Save(ctx, SlotEvents, []byte(`[1]`)))
			require.NoError(t, blobs.Save(ctx, SlotEvents, []byte(`[2]`)))
			data, err = blobs.Load(ctx, SlotEvents)
			require.NoError(t, err)
			assert.Equal(t, `[2]`, string(data))

			data, err = blobs.Load(ctx, SlotInventory)
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestStore_PersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	for name, blobs := range blobBackends(t) {
		t.Run(name, func(t *testing.T) {
			s, err := Load(ctx, blobs)
			require.NoError(t, err)

			now := time.Date(2025, 7, 19, 9, 0, 0, 0, time.UTC)
			ev := model.NewEvent("Camping", now, []string{"tent", "lantern"}, "lake")
			require.NoError(t, s.ReplaceEvents(ctx, []model.Event{ev}))
			require.NoError(t, s.ReplaceInventory(ctx, model.NewInventory("tent")))

			list := model.NewShoppingList([]string{ev.ID}, ev.Items, now)
			require.NoError(t, list.Check("tent"))
			require.NoError(t, s.ReplaceShoppingLists(ctx, []model.ShoppingList{list}))

			reloaded, err := Load(ctx, blobs)
			require.NoError(t, err)

			events := reloaded.Events()
			require.Len(t, events, 1)
			assert.Equal(t, ev.ID, events[0].ID)
			assert.True(t, events[0].Date.Equal(now))
			assert.Equal(t, []string{"tent"}, reloaded.Inventory().Items())

			got, err := reloaded.ShoppingList(list.ID)
			require.NoError(t, err)
			assert.True(t, list.Status.Equal(got.Status))
			assert.Equal(t, []string{"tent"}, got.Status.CheckedItems())
		})
	}
}

func TestStore_FailedSaveLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryBlobStore()
	s, err := Load(ctx, blobs)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceInventory(ctx, model.NewInventory("tent")))

	blobs.SaveErr = errors.New("disk full")
	err = s.ReplaceInventory(ctx, model.NewInventory("tent", "rope"))
	require.Error(t, err)
	assert.Equal(t, []string{"tent"}, s.Inventory().Items())
}

func TestStore_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s, err := Load(ctx, NewMemoryBlobStore())
	require.NoError(t, err)
	require.NoError(t, s.ReplaceEvents(ctx, []model.Event{{ID: "1", Title: "x", Items: []string{"a"}}}))

	events := s.Events()
	events[0].Items[0] = "mutated"
	got, err := s.Event("1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Items[0])

	_, err = s.Event("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_RejectsCorruptStatus(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryBlobStore()
	require.NoError(t, blobs.Save(ctx, SlotShoppingLists, []byte(`[{"id":"1","items":["a"],"status":{"type":"paused"}}]`)))

	_, err := Load(ctx, blobs)
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("postgres", "")
	assert.Error(t, err)
}
