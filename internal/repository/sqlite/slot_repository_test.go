package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapmeta/internal/repository"
	"snapmeta/internal/repository/repotest"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func TestSlotRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.SlotRepository {
		repo := NewSlotRepository(setupTestDB(t))
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestSlotRepository_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.db")
	ctx := context.Background()

	db, err := New(path)
	require.NoError(t, err)
	repo := NewSlotRepository(db)
	require.NoError(t, repo.Write(ctx, "metadata", []byte(`{"kind":"exif","fields":{}}`)))
	require.NoError(t, repo.Close())

	db, err = New(path)
	require.NoError(t, err)
	repo = NewSlotRepository(db)
	defer repo.Close()

	v, ok, err := repo.Read(ctx, "metadata")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"kind":"exif","fields":{}}`, string(v))
}
