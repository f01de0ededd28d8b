// Package metadata derives a descriptive record from an image payload: the
// embedded EXIF directory when one exists, otherwise synthesized provenance.
package metadata

import (
	"bytes"
	"encoding/json"
	"time"

	"snapmeta/internal/model"
)

// Kind discriminates the two Record variants.
type Kind string

const (
	KindExif       Kind = "exif"
	KindProvenance Kind = "provenance"
)

// TimestampLayout is ISO-8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	KeySource    = "source"
	KeyTimestamp = "timestamp"
)

// Field is one displayable key/value pair.
type Field struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// Record is implemented only by *Exif and *Provenance.
type Record interface {
	Kind() Kind
	// Fields lists the defined fields in display order.
	Fields() []Field
	// Get returns the value for key, Undefined when absent.
	Get(key string) Value
	sealed()
}

// Exif holds fields decoded from an embedded tag directory. Only keys from
// Tags can be set.
type Exif struct {
	values map[string]Value
}

// NewExif builds an Exif record. Fields with keys outside Tags or with
// Undefined values are dropped.
func NewExif(fields ...Field) *Exif {
	e := &Exif{values: make(map[string]Value, len(fields))}
	for _, f := range fields {
		e.set(f.Key, f.Value)
	}
	return e
}

func (e *Exif) set(key string, v Value) {
	if _, ok := tagIndex[key]; !ok || !v.IsDefined() {
		return
	}
	e.values[key] = v
}

func (e *Exif) Kind() Kind { return KindExif }
func (e *Exif) sealed()    {}

func (e *Exif) Get(key string) Value {
	return e.values[key]
}

func (e *Exif) Len() int {
	return len(e.values)
}

func (e *Exif) Fields() []Field {
	fields := make([]Field, 0, len(e.values))
	for _, t := range Tags {
		if v, ok := e.values[t.Key]; ok {
			fields = append(fields, Field{Key: t.Key, Value: v})
		}
	}
	return fields
}

// Coordinates converts the GPS triples to signed decimal degrees.
// ok is false unless both axes and both hemisphere references are present.
func (e *Exif) Coordinates() (lat, lon float64, ok bool) {
	lat, okLat := decimalDegrees(e.Get(KeyGPSLatitude), e.Get(KeyGPSLatitudeRef), "S")
	lon, okLon := decimalDegrees(e.Get(KeyGPSLongitude), e.Get(KeyGPSLongitudeRef), "W")
	if !okLat || !okLon {
		return 0, 0, false
	}
	return lat, lon, true
}

func decimalDegrees(triple, ref Value, negative string) (float64, bool) {
	if triple.Kind() != Sequence || ref.Kind() != String || len(triple.seq) != 3 {
		return 0, false
	}
	d := triple.seq[0] + triple.seq[1]/60 + triple.seq[2]/3600
	if ref.str == negative {
		d = -d
	}
	return d, true
}

func (e *Exif) MarshalJSON() ([]byte, error) {
	return marshalFields(e.Fields())
}

// Provenance is synthesized when no embedded tags are available.
type Provenance struct {
	Source    string
	Timestamp time.Time
}

// NewProvenance labels the record by capture route. Anything that did not
// come from the camera is reported as a file upload.
func NewProvenance(origin model.Origin, at time.Time) *Provenance {
	source := model.OriginFileUpload.String()
	if origin == model.OriginCamera {
		source = model.OriginCamera.String()
	}
	return &Provenance{Source: source, Timestamp: at.UTC()}
}

func (p *Provenance) Kind() Kind { return KindProvenance }
func (p *Provenance) sealed()    {}

func (p *Provenance) Get(key string) Value {
	switch key {
	case KeySource:
		return Str(p.Source)
	case KeyTimestamp:
		return Str(p.Timestamp.UTC().Format(TimestampLayout))
	default:
		return Value{}
	}
}

func (p *Provenance) Fields() []Field {
	return []Field{
		{Key: KeySource, Value: p.Get(KeySource)},
		{Key: KeyTimestamp, Value: p.Get(KeyTimestamp)},
	}
}

func (p *Provenance) MarshalJSON() ([]byte, error) {
	return marshalFields(p.Fields())
}

// marshalFields writes fields as a flat JSON object preserving order.
func marshalFields(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToMap flattens a record into plain Go values.
func ToMap(rec Record) map[string]any {
	fields := rec.Fields()
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value.Native()
	}
	return out
}
