package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapmeta/internal/logger"
	"snapmeta/internal/metadata"
	"snapmeta/internal/model"
	"snapmeta/internal/repository/memory"
)

func newTestService() (*SlotService, *memory.SlotRepository) {
	repo := memory.NewSlotRepository()
	return NewSlotService(repo, "capturedImage", "metadata", logger.NewNopLogger()), repo
}

func TestSlotService_SaveAndLoad(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	rec := metadata.NewExif(metadata.Field{Key: metadata.KeyMake, Value: metadata.Str("TestCam")})

	require.NoError(t, svc.Save(ctx, "data:image/jpeg;base64,AA==", rec))

	pending, err := svc.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,AA==", pending.ImageURI)
	assert.Equal(t, "TestCam", pending.Metadata.Get(metadata.KeyMake).Text())
}

func TestSlotService_SaveReplaces(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "data:image/png;base64,MQ==", metadata.NewExif(metadata.Field{Key: metadata.KeyMake, Value: metadata.Str("A")})))
	prov := metadata.NewProvenance(model.OriginCamera, time.Now())
	require.NoError(t, svc.Save(ctx, "data:image/png;base64,Mg==", prov))

	pending, err := svc.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,Mg==", pending.ImageURI)
	assert.Equal(t, metadata.KindProvenance, pending.Metadata.Kind())
	assert.False(t, pending.Metadata.Get(metadata.KeyMake).IsDefined())
}

func TestSlotService_NoPendingEvent(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Load(context.Background(), "")
	assert.True(t, errors.Is(err, ErrNoPendingEvent))

	_, err = svc.Load(context.Background(), "otherKey")
	assert.True(t, errors.Is(err, ErrNoPendingEvent))
}

func TestSlotService_MissingOrBadMetadata(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	require.NoError(t, repo.Write(ctx, "capturedImage", []byte("data:image/png;base64,AA==")))

	pending, err := svc.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, metadata.KindExif, pending.Metadata.Kind())
	assert.Empty(t, pending.Metadata.Fields())

	require.NoError(t, repo.Write(ctx, "metadata", []byte("{garbage")))
	pending, err = svc.Load(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pending.Metadata.Fields())
}

func TestSlotService_CustomImageKey(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	require.NoError(t, repo.Write(ctx, "imageData", []byte("data:image/jpeg;base64,AA==")))

	pending, err := svc.Load(ctx, "imageData")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,AA==", pending.ImageURI)
	assert.Equal(t, "capturedImage", svc.ImageKey())
	assert.Equal(t, "metadata", svc.MetadataKey())
}

func TestSlotService_OnlyImageReferencesAreLoaded(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, "data:image/png;base64,AA==", metadata.NewProvenance(model.OriginCamera, time.Now())))

	_, err := svc.Load(ctx, "metadata")
	assert.True(t, errors.Is(err, ErrNoPendingEvent))

	require.NoError(t, repo.Write(ctx, "notes", []byte(`{"kind":"exif"}`)))
	_, err = svc.Load(ctx, "notes")
	assert.True(t, errors.Is(err, ErrNoPendingEvent))

	pending, err := svc.Load(ctx, "capturedImage")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AA==", pending.ImageURI)
}
