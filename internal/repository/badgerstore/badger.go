// Package badgerstore stores slots in an embedded Badger key/value database.
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"snapmeta/internal/repository"
)

// StoreConfig selects where Badger keeps its files.
type StoreConfig struct {
	Path     string
	InMemory bool
}

// SlotRepository implements repository.SlotRepository on Badger.
type SlotRepository struct {
	db *badger.DB
}

// NewSlotRepository opens (or creates) the store described by config.
func NewSlotRepository(config StoreConfig) (*SlotRepository, error) {
	if config.Path == "" && !config.InMemory {
		return nil, errors.New("badger store needs a path or InMemory")
	}

	opts := badger.DefaultOptions(config.Path)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.ValueLogFileSize = 1024 * 1024 * 64
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &SlotRepository{db: db}, nil
}

func (r *SlotRepository) Write(ctx context.Context, key string, value []byte) error {
	return r.WriteBatch(ctx, []repository.Slot{{Key: key, Value: value}})
}

// WriteBatch sets every slot in one transaction.
func (r *SlotRepository) WriteBatch(ctx context.Context, slots []repository.Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := repository.ValidateSlots(slots); err != nil {
		return err
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		for _, s := range slots {
			if err := txn.Set([]byte(s.Key), append([]byte(nil), s.Value...)); err != nil {
				return fmt.Errorf("slot %s: %w", s.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write slots: %w", err)
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

	var value []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

func (r *SlotRepository) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return nil
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

func (r *SlotRepository) Close() error {
	return r.db.Close()
}
