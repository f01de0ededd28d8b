// Package repotest holds the behaviour every SlotRepository must share.
package repotest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapmeta/internal/repository"
)

// Run exercises a fresh repository from newRepo against the common contract.
func Run(t *testing.T, newRepo func(t *testing.T) repository.SlotRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key is absent", func(t *testing.T) {
		repo := newRepo(t)
		v, ok, err := repo.Read(ctx, "capturedImage")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("write then read", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Write(ctx, "capturedImage", []byte("data:image/jpeg;base64,AA==")))

		v, ok, err := repo.Read(ctx, "capturedImage")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("data:image/jpeg;base64,AA=="), v)
	})

	t.Run("overwrite replaces", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Write(ctx, "metadata", []byte("first")))
		require.NoError(t, repo.Write(ctx, "metadata", []byte("second")))

		v, ok, err := repo.Read(ctx, "metadata")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("second"), v)
	})

	t.Run("empty value is present", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Write(ctx, "metadata", []byte{}))

		v, ok, err := repo.Read(ctx, "metadata")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, v)
	})

	t.Run("batch writes every slot", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.WriteBatch(ctx, []repository.Slot{
			{Key: "capturedImage", Value: []byte("img")},
			{Key: "metadata", Value: []byte("{}")},
		}))

		for key, want := range map[string]string{"capturedImage": "img", "metadata": "{}"} {
			v, ok, err := repo.Read(ctx, key)
			require.NoError(t, err)
			require.True(t, ok, key)
			assert.Equal(t, want, string(v))
		}
	})

	t.Run("batch with blank key writes nothing", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.WriteBatch(ctx, []repository.Slot{
			{Key: "capturedImage", Value: []byte("img")},
			{Key: "", Value: []byte("x")},
		})
		assert.True(t, errors.Is(err, repository.ErrEmptyKey))

		_, ok, err := repo.Read(ctx, "capturedImage")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		repo := newRepo(t)
		in := []byte("abc")
		require.NoError(t, repo.Write(ctx, "k", in))
		in[0] = 'z'

		v, _, err := repo.Read(ctx, "k")
		require.NoError(t, err)
		v[1] = 'z'

		again, _, err := repo.Read(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again))
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Write(ctx, "k", []byte("v")))
		require.NoError(t, repo.Delete(ctx, "k"))
		require.NoError(t, repo.Delete(ctx, "never-written"))

		_, ok, err := repo.Read(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("blank key rejected", func(t *testing.T) {
		repo := newRepo(t)
		assert.True(t, errors.Is(repo.Write(ctx, "", []byte("v")), repository.ErrEmptyKey))
		_, _, err := repo.Read(ctx, "")
		assert.True(t, errors.Is(err, repository.ErrEmptyKey))
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := newRepo(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, repo.Write(cancelled, "k", []byte("v")), context.Canceled)
		_, _, err := repo.Read(cancelled, "k")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
