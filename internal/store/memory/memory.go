// Package memory is an in-process core.Repository used by tests and the
// "memory:" database URL.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

// Store keeps items in id order behind a mutex.
type Store struct {
	mu     sync.RWMutex
	items  []core.Item
	nextID int64
	now    func() time.Time

	// FailInserts makes InsertBatch fail with this error when set.
	FailInserts error
}

// New returns an empty store.
func New() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// List runs core.Query over a snapshot of the store.
func (s *Store) List(_ context.Context, q core.QueryState) (core.Page, error) {
	s.mu.RLock()
	snapshot := slices.Clone(s.items)
	s.mu.RUnlock()
	return core.Query(snapshot, q), nil
}

func (s *Store) indexOf(id int64) int {
	i, found := slices.BinarySearchFunc(s.items, id, func(it core.Item, id int64) int {
		switch {
		case it.ID < id:
			return -1
		case it.ID > id:
			return 1
		}
		return 0
	})
	if !found {
		return -1
	}
	return i
}

// Get returns one item.
func (s *Store) Get(_ context.Context, id int64) (core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Item{}, core.ErrNotFound
	}
	return s.items[i], nil
}

// Update applies patch and bumps UpdatedAt.
func (s *Store) Update(_ context.Context, id int64, patch core.ItemPatch) (core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Item{}, core.ErrNotFound
	}
	item := patch.Apply(s.items[i])
	item.UpdatedAt = s.now()
	s.items[i] = item
	return item, nil
}

// Delete removes one item.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// Clear removes everything. Ids are not reused afterwards.
func (s *Store) Clear(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.items))
	s.items = nil
	return n, nil
}

// InsertBatch appends items with fresh ids.
func (s *Store) InsertBatch(ctx context.Context, items []core.NewItem) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInserts != nil {
		return 0, s.FailInserts
	}

	now := s.now()
	for _, n := range items {
		s.items = append(s.items, core.Item{
			ID:                 s.nextID,
			Name:               n.Name,
			Quantity:           n.Quantity,
			Price:              n.Price,
			Set:                n.Set,
			SetCode:            n.SetCode,
			Number:             n.Number,
			Foil:               n.Foil,
			Rarity:             n.Rarity,
			TCGPlayerProductID: n.TCGPlayerProductID,
			CreatedAt:          now,
			UpdatedAt:          now,
			Raw:                slices.Clone(n.Raw),
		})
		s.nextID++
	}
	return len(items), nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
