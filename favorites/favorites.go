// Package favorites keeps the user's starred items in a persisted namespace.
// Identity is the item id, so alternate names of one item share a slot.
package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s0up4200/dexbrowse/catalog"
	"github.com/s0up4200/dexbrowse/storage"
)

// ErrInvalidItem is returned for items without a positive id
var ErrInvalidItem = errors.New("favorite requires a positive item id")

// Store is the persisted key/value backend.
// *storage.Namespace and *storage.Memory implement it.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Each(fn func(key string, value []byte) error) error
}

// Favorites is a set of items keyed by id
type Favorites struct {
	store  Store
	logger zerolog.Logger
	mu     sync.Mutex
}

// New creates a Favorites set on top of store
func New(store Store, logger zerolog.Logger) *Favorites {
	return &Favorites{store: store, logger: logger}
}

// key pads ids so key order matches id order
func key(id int) string {
	return fmt.Sprintf("%08d", id)
}

// Add stores item, replacing any previous snapshot with the same id
func (f *Favorites) Add(item catalog.ItemDetail) error {
	if item.ID <= 0 {
		return ErrInvalidItem
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode favorite: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.store.Set(key(item.ID), data); err != nil {
		return fmt.Errorf("failed to save favorite %d: %w", item.ID, err)
	}
	return nil
}

// Remove deletes id; removing an absent id is not an error
func (f *Favorites) Remove(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.store.Delete(key(id)); err != nil {
		return fmt.Errorf("failed to remove favorite %d: %w", id, err)
	}
	return nil
}

// Toggle adds item when absent and removes it when present.
// It reports whether the item is a favorite afterwards.
func (f *Favorites) Toggle(item catalog.ItemDetail) (bool, error) {
	if item.ID <= 0 {
		return false, ErrInvalidItem
	}

	present, err := f.Contains(item.ID)
	if err != nil {
		return false, err
	}
	if present {
		return false, f.Remove(item.ID)
	}
	return true, f.Add(item)
}

// Contains reports whether id is a favorite
func (f *Favorites) Contains(id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, err := f.store.Get(key(id))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to read favorite %d: %w", id, err)
	}
}

// List returns every favorite ordered by id. Unreadable entries are skipped.
func (f *Favorites) List() ([]catalog.ItemDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []catalog.ItemDetail
	err := f.store.Each(func(k string, value []byte) error {
		var item catalog.ItemDetail
		if err := json.Unmarshal(value, &item); err != nil {
			f.logger.Warn().Err(err).Str("key", k).Msg("Skipping unreadable favorite")
			return nil
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// IDs returns the favorite ids as a set
func (f *Favorites) IDs() (map[int]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make(map[int]bool)
	err := f.store.Each(func(k string, _ []byte) error {
		if id, err := strconv.Atoi(k); err == nil {
			ids[id] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return ids, nil
}

// Clear removes every favorite
func (f *Favorites) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	return nil
}
