package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrNoTagDirectory means the payload carries no embedded EXIF directory.
	ErrNoTagDirectory = errors.New("no embedded tag directory")
	// ErrNoKnownTags means a directory was found but none of its entries are in Tags.
	ErrNoKnownTags = errors.New("tag directory holds no known fields")
)

// ParseError reports a malformed or truncated tag directory. It never
// leaves this package except as the reason returned by ExtractWithReason.
type ParseError struct {
	Container string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("metadata parse (%s): %v", e.Container, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	exifPrefix   = []byte("Exif\x00\x00")
	pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	tiffLE       = []byte("II*\x00")
	tiffBE       = []byte("MM\x00*")
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP1 = 0xE1

	maxIFDChain = 16
)

// locateDirectory returns the TIFF-structured tag directory embedded in data.
func locateDirectory(data []byte) ([]byte, error) {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == markerSOI:
		return jpegDirectory(data)
	case bytes.HasPrefix(data, pngSignature):
		return pngDirectory(data)
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return webpDirectory(data)
	case bytes.HasPrefix(data, tiffLE), bytes.HasPrefix(data, tiffBE):
		return data, nil
	case bytes.HasPrefix(data, exifPrefix):
		return data[len(exifPrefix):], nil
	default:
		return nil, ErrNoTagDirectory
	}
}

func jpegDirectory(data []byte) ([]byte, error) {
	pos := 2
	for pos < len(data) {
		if data[pos] != 0xFF {
			return nil, &ParseError{Container: "jpeg", Err: fmt.Errorf("expected marker at offset %d", pos)}
		}
		// Fill bytes may precede a marker.
		for pos < len(data) && data[pos] == 0xFF {
			pos++
		}
		if pos >= len(data) {
			break
		}
		marker := data[pos]
		pos++

		switch {
		case marker == markerEOI || marker == markerSOS:
			return nil, ErrNoTagDirectory
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		if pos+2 > len(data) {
			return nil, &ParseError{Container: "jpeg", Err: errors.New("truncated segment length")}
		}
		segLen := int(binary.BigEndian.Uint16(data[pos:])) - 2
		pos += 2
		if segLen < 0 || pos+segLen > len(data) {
			return nil, &ParseError{Container: "jpeg", Err: fmt.Errorf("segment 0x%02X overruns payload", marker)}
		}
		seg := data[pos : pos+segLen]
		pos += segLen

		if marker == markerAPP1 && bytes.HasPrefix(seg, exifPrefix) {
			return seg[len(exifPrefix):], nil
		}
	}
	return nil, ErrNoTagDirectory
}

func pngDirectory(data []byte) ([]byte, error) {
	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		typ := string(data[pos+4 : pos+8])
		pos += 8
		if length < 0 || pos+length > len(data) {
			return nil, &ParseError{Container: "png", Err: fmt.Errorf("chunk %s overruns payload", typ)}
		}
		chunk := data[pos : pos+length]
		pos += length + 4 // crc

		switch typ {
		case "eXIf":
			return bytes.TrimPrefix(chunk, exifPrefix), nil
		case "IEND":
			return nil, ErrNoTagDirectory
		}
	}
	return nil, ErrNoTagDirectory
}

func webpDirectory(data []byte) ([]byte, error) {
	pos := 12
	for pos+8 <= len(data) {
		typ := string(data[pos : pos+4])
		length := int(binary.LittleEndian.Uint32(data[pos+4:]))
		pos += 8
		if length < 0 || pos+length > len(data) {
			return nil, &ParseError{Container: "webp", Err: fmt.Errorf("chunk %s overruns payload", typ)}
		}
		if typ == "EXIF" {
			return bytes.TrimPrefix(data[pos:pos+length], exifPrefix), nil
		}
		pos += length + length&1
	}
	return nil, ErrNoTagDirectory
}

// checkIFDChain walks the top-level IFD chain and rejects cycles and
// out-of-range offsets before the directory is handed to goexif.
func checkIFDChain(dir []byte) error {
	var order binary.ByteOrder
	switch {
	case bytes.HasPrefix(dir, tiffLE):
		order = binary.LittleEndian
	case bytes.HasPrefix(dir, tiffBE):
		order = binary.BigEndian
	default:
		return &ParseError{Container: "tiff", Err: errors.New("missing byte-order header")}
	}

	seen := make(map[uint32]bool)
	offset := order.Uint32(dir[4:8])
	for offset != 0 {
		if seen[offset] || len(seen) >= maxIFDChain {
			return &ParseError{Container: "tiff", Err: fmt.Errorf("IFD chain loops at offset %d", offset)}
		}
		seen[offset] = true

		start := int64(offset)
		if start+2 > int64(len(dir)) {
			return &ParseError{Container: "tiff", Err: fmt.Errorf("IFD offset %d past end", offset)}
		}
		count := int64(order.Uint16(dir[start:]))
		next := start + 2 + count*12
		if next+4 > int64(len(dir)) {
			return &ParseError{Container: "tiff", Err: fmt.Errorf("IFD at %d truncated", offset)}
		}
		offset = order.Uint32(dir[next:])
	}
	return nil
}
