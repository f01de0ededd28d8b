package metadata

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"snapmeta/internal/model"
)

// Extractor derives a Record from a payload. It is safe for concurrent use.
type Extractor struct {
	now func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the provenance timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: when no usable tags are found it returns Provenance.
func (e *Extractor) Extract(buf model.ByteBuffer) Record {
	rec, _ := e.ExtractWithReason(buf)
	return rec
}

// ExtractWithReason behaves like Extract and also reports why the fallback
// was taken: ErrNoTagDirectory, ErrNoKnownTags or a *ParseError. The record
// is never nil.
func (e *Extractor) ExtractWithReason(buf model.ByteBuffer) (Record, error) {
	rec, err := e.parse(buf.Bytes())
	if err != nil {
		return NewProvenance(buf.Origin(), e.now()), err
	}
	return rec, nil
}

func (e *Extractor) parse(data []byte) (*Exif, error) {
	dir, err := locateDirectory(data)
	if err != nil {
		return nil, err
	}

	x, err := decodeDirectory(dir)
	if err != nil {
		return nil, err
	}

	rec := NewExif()
	for _, t := range Tags {
		tag, err := x.Get(exif.FieldName(t.Key))
		if err != nil {
			continue
		}
		if v, ok := convert(t.Type, tag); ok {
			rec.set(t.Key, v)
		}
	}
	if rec.Len() == 0 {
		return nil, ErrNoKnownTags
	}
	return rec, nil
}

// decodeDirectory runs goexif over a raw TIFF directory. goexif can panic on
// offsets that point outside the buffer, so panics are reported as ParseError.
func decodeDirectory(dir []byte) (x *exif.Exif, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, &ParseError{Container: "tiff", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if len(dir) < 8 {
		return nil, &ParseError{Container: "tiff", Err: fmt.Errorf("directory is %d bytes", len(dir))}
	}
	if err := checkIFDChain(dir); err != nil {
		return nil, err
	}
	x, err = exif.Decode(bytes.NewReader(dir))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, &ParseError{Container: "tiff", Err: err}
	}
	return x, nil
}

func convert(kind ValueKind, tag *tiff.Tag) (Value, bool) {
	switch kind {
	case String:
		if tag.Format() != tiff.StringVal {
			return Value{}, false
		}
		s, err := tag.StringVal()
		if err != nil {
			return Value{}, false
		}
		return Str(s), true
	case Number:
		if tag.Count < 1 {
			return Value{}, false
		}
		n, ok := number(tag, 0)
		if !ok {
			return Value{}, false
		}
		return Num(n), true
	case Sequence:
		if tag.Count < 1 {
			return Value{}, false
		}
		nums := make([]float64, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			n, ok := number(tag, i)
			if !ok {
				return Value{}, false
			}
			nums = append(nums, n)
		}
		return Seq(nums...), true
	default:
		return Value{}, false
	}
}

func number(tag *tiff.Tag, i int) (float64, bool) {
	switch tag.Format() {
	case tiff.IntVal:
		v, err := tag.Int64(i)
		if err != nil {
			return 0, false
		}
		return float64(v), true
	case tiff.RatVal:
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		return float64(num) / float64(den), true
	case tiff.FloatVal:
		v, err := tag.Float(i)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}
