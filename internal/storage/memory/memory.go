// Package memory keeps slots in process memory. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"ledger/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// Slot returns a handle on key. Handles for the same key share state.
func (s *Store) Slot(key string) *Slot {
	return &Slot{store: s, key: key}
}

type Slot struct {
	store *Store
	key   string
}

var _ storage.Slot = (*Slot)(nil)

func (sl *Slot) Read(_ context.Context) ([]byte, error) {
	sl.store.mu.Lock()
	defer sl.store.mu.Unlock()
	v, ok := sl.store.slots[sl.key]
	if !ok {
		return nil, storage.ErrSlotAbsent
	}
	return append([]byte(nil), v...), nil
}

func (sl *Slot) Write(_ context.Context, value []byte) error {
	sl.store.mu.Lock()
	defer sl.store.mu.Unlock()
	sl.store.slots[sl.key] = append([]byte(nil), value...)
	return nil
}
