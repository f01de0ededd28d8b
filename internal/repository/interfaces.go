package repository

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned for writes and reads with a blank slot key.
var ErrEmptyKey = errors.New("slot key must not be empty")

// Slot is one key/value pair written in a batch.
type Slot struct {
	Key   string
	Value []byte
}

// SlotRepository is a small durable key/value store for pending-event state.
// Read reports a missing key with ok == false and a nil error.
type SlotRepository interface {
	// Write operations
	Write(ctx context.Context, key string, value []byte) error
	WriteBatch(ctx context.Context, slots []Slot) error

	// Read operations
	Read(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Delete operations
	Delete(ctx context.Context, key string) error

	Close() error
}

// ValidateSlots rejects batches containing a blank key.
func ValidateSlots(slots []Slot) error {
	for _, s := range slots {
		if s.Key == "" {
			return ErrEmptyKey
		}
	}
	return nil
}
