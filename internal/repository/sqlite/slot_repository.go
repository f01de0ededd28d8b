package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"snapmeta/internal/repository"
)

const upsertSlot = `
	INSERT INTO slots (key, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

// SlotRepository implements repository.SlotRepository for SQLite.
type SlotRepository struct {
	db *DB
}

// NewSlotRepository creates a new SQLite slot repository.
func NewSlotRepository(db *DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Write stores value under key, replacing any previous value.
func (r *SlotRepository) Write(ctx context.Context, key string, value []byte) error {
	return r.WriteBatch(ctx, []repository.Slot{{Key: key, Value: value}})
}

// WriteBatch stores all slots in a single transaction.
func (r *SlotRepository) WriteBatch(ctx context.Context, slots []repository.Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := repository.ValidateSlots(slots); err != nil {
		return err
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSlot)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range slots {
		value := s.Value
		if value == nil {
			value = []byte{}
		}
		if _, err := stmt.ExecContext(ctx, s.Key, value); err != nil {
			return fmt.Errorf("failed to write slot %s: %w", s.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit slots: %w", err)
	}
	return nil
}

// Read returns the value stored under key.
func (r *SlotRepository) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if key == "" {
		return nil, false, repository.ErrEmptyKey
	}

	r.db.RLock()
	defer r.db.RUnlock()

	var value []byte
	err := r.db.Conn().QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
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

// Delete removes key. Deleting a missing key is not an error.
func (r *SlotRepository) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (r *SlotRepository) Close() error {
	return r.db.Close()
}
