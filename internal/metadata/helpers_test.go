package metadata

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// ifdEntry is a little-endian TIFF directory entry used to build fixtures.
type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) ifdEntry {
	v := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: 2, count: uint32(len(v)), data: v}
}

func shortEntry(tag uint16, v uint16) ifdEntry {
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, v)
	return ifdEntry{tag: tag, typ: 3, count: 1, data: data}
}

func longEntry(tag uint16, v uint32) ifdEntry {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, v)
	return ifdEntry{tag: tag, typ: 4, count: 1, data: data}
}

// rationalEntry takes numerator/denominator pairs.
func rationalEntry(tag uint16, pairs ...uint32) ifdEntry {
	data := make([]byte, 4*len(pairs))
	for i, p := range pairs {
		binary.LittleEndian.PutUint32(data[4*i:], p)
	}
	return ifdEntry{tag: tag, typ: 5, count: uint32(len(pairs) / 2), data: data}
}

func encodeIFD(base int, entries []ifdEntry) []byte {
	sorted := append([]ifdEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].tag < sorted[j].tag })

	var dir, values bytes.Buffer
	valueBase := base + 2 + 12*len(sorted) + 4
	le := binary.LittleEndian

	binary.Write(&dir, le, uint16(len(sorted)))
	for _, e := range sorted {
		binary.Write(&dir, le, e.tag)
		binary.Write(&dir, le, e.typ)
		binary.Write(&dir, le, e.count)
		if len(e.data) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.data)
			dir.Write(inline)
			continue
		}
		binary.Write(&dir, le, uint32(valueBase+values.Len()))
		values.Write(e.data)
		if values.Len()%2 == 1 {
			values.WriteByte(0)
		}
	}
	binary.Write(&dir, le, uint32(0))
	return append(dir.Bytes(), values.Bytes()...)
}

// buildTIFF lays out IFD0 and, when gps is non-empty, a GPS sub-IFD.
func buildTIFF(ifd0, gps []ifdEntry) []byte {
	const gpsPointer = 0x8825
	entries := append([]ifdEntry(nil), ifd0...)
	if len(gps) > 0 {
		entries = append(entries, longEntry(gpsPointer, 0))
	}
	body := encodeIFD(8, entries)
	if len(gps) > 0 {
		gpsOffset := 8 + len(body)
		entries[len(entries)-1] = longEntry(gpsPointer, uint32(gpsOffset))
		body = encodeIFD(8, entries)
		body = append(body, encodeIFD(gpsOffset, gps)...)
	}
	return append([]byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00}, body...)
}

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	return img
}

func plainJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), nil))
	return buf.Bytes()
}

func plainPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

// withAPP1 splices an Exif APP1 segment right after SOI.
func withAPP1(t *testing.T, tiffData []byte) []byte {
	t.Helper()
	jpg := plainJPEG(t)
	payload := append(append([]byte(nil), exifPrefix...), tiffData...)

	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, jpg[2:]...)
}

// withEXIfChunk inserts an eXIf chunk after IHDR.
func withEXIfChunk(t *testing.T, tiffData []byte) []byte {
	t.Helper()
	p := plainPNG(t)
	const afterIHDR = 8 + 25

	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(tiffData)))
	chunk = append(chunk, "eXIf"...)
	chunk = append(chunk, tiffData...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(append([]byte("eXIf"), tiffData...)))

	out := append([]byte(nil), p[:afterIHDR]...)
	out = append(out, chunk...)
	return append(out, p[afterIHDR:]...)
}
