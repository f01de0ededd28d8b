// Package memory is the process-lifetime slot store.
package memory

import (
	"context"
	"sync"

	"snapmeta/internal/repository"
)

// SlotRepository keeps slots in a map guarded by an RWMutex.
type SlotRepository struct {
	slots map[string][]byte
	mu    sync.RWMutex
}

// NewSlotRepository creates an empty store.
func NewSlotRepository() *SlotRepository {
	return &SlotRepository{slots: make(map[string][]byte)}
}

func (r *SlotRepository) Write(ctx context.Context, key string, value []byte) error {
	return r.WriteBatch(ctx, []repository.Slot{{Key: key, Value: value}})
}

// WriteBatch applies all slots under one lock so readers never see half a batch.
func (r *SlotRepository) WriteBatch(ctx context.Context, slots []repository.Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := repository.ValidateSlots(slots); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range slots {
		r.slots[s.Key] = append([]byte(nil), s.Value...)
	}
	return nil
}

func (r *SlotRepository) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if key == "" {
		return nil, false, repository.ErrEmptyKey
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (r *SlotRepository) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, key)
	return nil
}

func (r *SlotRepository) Close() error { return nil }
