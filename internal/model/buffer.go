package model

import (
	"bytes"
	"encoding/base64"
)

// Origin identifies the capture route an image payload arrived through.
type Origin int

const (
	OriginUnknown Origin = iota
	OriginFileUpload
	OriginCamera
)

// String returns the display label used by provenance records.
func (o Origin) String() string {
	switch o {
	case OriginCamera:
		return "Camera"
	case OriginFileUpload:
		return "File Upload"
	default:
		return "Unknown"
	}
}

// ByteBuffer is an immutable image payload plus its declared MIME type.
type ByteBuffer struct {
	data   []byte
	mime   string
	origin Origin
}

// NewByteBuffer copies data so later writes by the caller cannot leak into the buffer.
func NewByteBuffer(data []byte, mime string, origin Origin) ByteBuffer {
	owned := make([]byte, len(data))
	copy(owned, data)
	return ByteBuffer{data: owned, mime: mime, origin: origin}
}

// Bytes returns a copy of the payload.
func (b ByteBuffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Reader returns a read-only view of the payload.
func (b ByteBuffer) Reader() *bytes.Reader {
	return bytes.NewReader(b.data)
}

func (b ByteBuffer) Len() int       { return len(b.data) }
func (b ByteBuffer) MIME() string   { return b.mime }
func (b ByteBuffer) Origin() Origin { return b.origin }
func (b ByteBuffer) IsEmpty() bool  { return len(b.data) == 0 }

// DataURI renders the payload as a directly displayable data: URI.
func (b ByteBuffer) DataURI() string {
	return "data:" + b.mime + ";base64," + base64.StdEncoding.EncodeToString(b.data)
}
