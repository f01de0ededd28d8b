package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snapmeta/internal/camera"
	"snapmeta/internal/imaging"
	"snapmeta/internal/logger"
	"snapmeta/internal/metadata"
	"snapmeta/internal/model"
	"snapmeta/internal/source"
	"snapmeta/internal/transform"
)

// Result is what a Ready event hands to the host.
type Result struct {
	EventID     string          `json:"eventId"`
	DisplayURI  string          `json:"displayUri"`
	OriginalURI string          `json:"originalUri,omitempty"`
	Metadata    metadata.Record `json:"metadata"`
	Width       int             `json:"width,omitempty"`
	Height      int             `json:"height,omitempty"`
	Transform   string          `json:"transform,omitempty"`
	MIME        string          `json:"mime,omitempty"`
	Origin      string          `json:"origin,omitempty"`

	Image model.ByteBuffer `json:"-"`
}

// Processor runs the per-event stages. It holds no per-event state and
// may be shared by several workers.
type Processor struct {
	adapter        *source.Adapter
	opener         camera.Opener
	extractor      *metadata.Extractor
	transform      transform.Transform
	encoder        imaging.Encoder
	captureTimeout time.Duration
	maxPixels      int64
	logger         *logger.Logger
}

// ErrEventStarted is returned by Run for an event that has already left Idle.
var ErrEventStarted = errors.New("event already started")

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithMaxPixels bounds the declared image size the decode stage accepts.
// n <= 0 disables the bound.
func WithMaxPixels(n int64) ProcessorOption {
	return func(p *Processor) { p.maxPixels = n }
}

// NewProcessor creates a Processor. opener may be nil when no camera is attached.
func NewProcessor(
	adapter *source.Adapter,
	opener camera.Opener,
	extractor *metadata.Extractor,
	tr transform.Transform,
	encoder imaging.Encoder,
	captureTimeout time.Duration,
	logger *logger.Logger,
	opts ...ProcessorOption,
) *Processor {
	if tr == nil {
		tr = transform.Identity{}
	}
	p := &Processor{
		adapter:        adapter,
		opener:         opener,
		extractor:      extractor,
		transform:      tr,
		encoder:        encoder,
		captureTimeout: captureTimeout,
		maxPixels:      imaging.DefaultMaxPixels,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process creates an event for in and runs it to Ready or back to Idle.
func (p *Processor) Process(ctx context.Context, in Input) *Event {
	ev := NewEvent(in.Origin())
	_ = p.Run(ctx, ev, in)
	return ev
}

// Run drives a fresh Idle event to Ready or back to Idle. Callers that need
// to observe the event while it runs create it with NewEvent first. An event
// that has already run is left untouched and ErrEventStarted is returned.
// Stage failures are recorded on the event, not returned.
func (p *Processor) Run(ctx context.Context, ev *Event, in Input) error {
	if !ev.claim() {
		return ErrEventStarted
	}
	log := p.logger.WithEvent(ev.ID)

	stage := StageAcquire
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic during %s: %v", stage, r)
			ev.Abort(stage, fmt.Errorf("panic: %v", r))
		}
	}()

	buf, err := p.acquire(ctx, in)
	if err != nil {
		log.Warning("Acquire failed (%s): %v", ev.Origin, err)
		ev.fail(StageAcquire, err)
		return nil
	}
	ev.advance(SourceAcquired)

	stage = StageDecode
	grid, err := imaging.DecodeLimited(buf, p.maxPixels)
	if err != nil {
		log.Warning("Decode failed for %s: %v", buf.MIME(), err)
		ev.fail(StageDecode, err)
		return nil
	}
	ev.advance(Decoded)

	rec, reason := p.extractor.ExtractWithReason(buf)
	if reason != nil {
		var parseErr *metadata.ParseError
		if errors.As(reason, &parseErr) {
			log.Warning("Metadata fallback to provenance: %v", reason)
		} else {
			log.Debug("Metadata fallback to provenance: %v", reason)
		}
	}
	ev.advance(MetadataExtracted)

	stage = StageTransform
	out, err := p.transform.Apply(grid)
	if err != nil {
		log.Error("Transform %s failed: %v", p.transform.Name(), err)
		ev.fail(StageTransform, err)
		return nil
	}
	ev.advance(Transformed)

	stage = StageEncode
	encoded, err := p.encoder.Encode(out)
	if err != nil {
		log.Error("Encode failed: %v", err)
		ev.fail(StageEncode, err)
		return nil
	}
	ev.advance(Encoded)

	ev.finish(&Result{
		EventID:     ev.ID,
		DisplayURI:  encoded.DataURI(),
		OriginalURI: buf.DataURI(),
		Metadata:    rec,
		Width:       out.Width,
		Height:      out.Height,
		Transform:   p.transform.Name(),
		MIME:        encoded.MIME(),
		Origin:      ev.Origin.String(),
		Image:       encoded,
	})
	log.Info("Event ready: %dx%d %s, metadata %s", out.Width, out.Height, encoded.MIME(), rec.Kind())
	return nil
}

func (p *Processor) acquire(ctx context.Context, in Input) (model.ByteBuffer, error) {
	if err := ctx.Err(); err != nil {
		return model.ByteBuffer{}, err
	}

	switch in := in.(type) {
	case FileInput:
		return p.adapter.FromReader(in.Reader, in.MIME, in.Origin())
	case DataURIInput:
		return p.adapter.FromDataURI(in.URI, in.Origin())
	case CameraInput:
		return p.capture(ctx, in)
	default:
		return model.ByteBuffer{}, fmt.Errorf("unsupported input %T", in)
	}
}

func (p *Processor) capture(ctx context.Context, in CameraInput) (model.ByteBuffer, error) {
	opts, err := p.adapter.CheckFrame(source.FrameOptions{Width: in.Width, Height: in.Height, Quality: in.Quality})
	if err != nil {
		return model.ByteBuffer{}, err
	}

	if p.captureTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.captureTimeout)
		defer cancel()
	}

	frame, err := camera.Capture(ctx, p.opener, camera.Request{Width: opts.Width, Height: opts.Height})
	if err != nil {
		return model.ByteBuffer{}, err
	}
	return p.adapter.FromFrame(frame, opts)
}
