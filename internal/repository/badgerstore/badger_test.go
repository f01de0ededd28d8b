package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapmeta/internal/repository"
	"snapmeta/internal/repository/repotest"
)

func TestSlotRepository_InMemory(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.SlotRepository {
		repo, err := NewSlotRepository(StoreConfig{InMemory: true})
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestSlotRepository_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewSlotRepository(StoreConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, repo.Write(ctx, "capturedImage", []byte("data:image/png;base64,AA==")))
	require.NoError(t, repo.Close())

	repo, err = NewSlotRepository(StoreConfig{Path: dir})
	require.NoError(t, err)
	defer repo.Close()

	v, ok, err := repo.Read(ctx, "capturedImage")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,AA==", string(v))
}

func TestNewSlotRepository_NeedsLocation(t *testing.T) {
	_, err := NewSlotRepository(StoreConfig{})
	assert.Error(t, err)
}
