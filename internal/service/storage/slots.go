package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"snapmeta/internal/logger"
	"snapmeta/internal/metadata"
	"snapmeta/internal/repository"
)

// ErrNoPendingEvent is returned by Load when no image has been stored.
var ErrNoPendingEvent = errors.New("no pending capture event")

// Pending is the image reference and metadata of the last Ready event.
type Pending struct {
	ImageURI string
	Metadata metadata.Record
}

// SlotService owns the two-slot layout: one image reference and one
// metadata record, both replaced on every Ready event.
type SlotService struct {
	repo        repository.SlotRepository
	imageKey    string
	metadataKey string
	logger      *logger.Logger
}

// NewSlotService creates a SlotService over repo.
func NewSlotService(repo repository.SlotRepository, imageKey, metadataKey string, logger *logger.Logger) *SlotService {
	return &SlotService{
		repo:        repo,
		imageKey:    imageKey,
		metadataKey: metadataKey,
		logger:      logger,
	}
}

func (s *SlotService) ImageKey() string    { return s.imageKey }
func (s *SlotService) MetadataKey() string { return s.metadataKey }

// Save writes both slots in one batch so a reader never sees an image
// paired with the previous event's metadata.
func (s *SlotService) Save(ctx context.Context, imageURI string, rec metadata.Record) error {
	encoded, err := metadata.Encode(rec)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	err = s.repo.WriteBatch(ctx, []repository.Slot{
		{Key: s.imageKey, Value: []byte(imageURI)},
		{Key: s.metadataKey, Value: encoded},
	})
	if err != nil {
		return fmt.Errorf("failed to save pending event: %w", err)
	}

	s.logger.Info("Saved pending event: image %s, metadata %s (%s)",
		humanize.Bytes(uint64(len(imageURI))), humanize.Bytes(uint64(len(encoded))), rec.Kind())
	return nil
}

// Load reads the pending event. imageKey selects the image slot; "" means
// the configured one. A missing metadata slot yields an empty Exif record.
// The metadata slot and any slot not holding a data URI are never returned
// as an image.
func (s *SlotService) Load(ctx context.Context, imageKey string) (*Pending, error) {
	if imageKey == "" {
		imageKey = s.imageKey
	}
	if imageKey == s.metadataKey {
		return nil, ErrNoPendingEvent
	}

	image, ok, err := s.repo.Read(ctx, imageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read image slot: %w", err)
	}
	if !ok || len(image) == 0 {
		return nil, ErrNoPendingEvent
	}
	if !strings.HasPrefix(string(image), "data:") {
		s.logger.Warning("Slot %q does not hold an image reference, ignoring it", imageKey)
		return nil, ErrNoPendingEvent
	}

	pending := &Pending{ImageURI: string(image), Metadata: metadata.NewExif()}

	raw, ok, err := s.repo.Read(ctx, s.metadataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata slot: %w", err)
	}
	if !ok {
		return pending, nil
	}

	rec, err := metadata.Decode(raw)
	if err != nil {
		s.logger.Warning("Stored metadata is unreadable, showing none: %v", err)
		return pending, nil
	}
	pending.Metadata = rec
	return pending, nil
}
