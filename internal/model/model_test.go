package model

import (
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteBuffer_IsIsolatedFromCaller(t *testing.T) {
	src := []byte{1, 2, 3}
	buf := NewByteBuffer(src, "image/png", OriginFileUpload)

	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, buf.Bytes())

	out := buf.Bytes()
	out[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, buf.Bytes())
}

func TestByteBuffer_DataURI(t *testing.T) {
	buf := NewByteBuffer([]byte("hi"), "image/png", OriginCamera)

	assert.Equal(t, "data:image/png;base64,aGk=", buf.DataURI())
	assert.Equal(t, 2, buf.Len())
	assert.False(t, buf.IsEmpty())
	assert.Equal(t, OriginCamera, buf.Origin())
}

func TestOrigin_String(t *testing.T) {
	assert.Equal(t, "Camera", OriginCamera.String())
	assert.Equal(t, "File Upload", OriginFileUpload.String())
	assert.Equal(t, "Unknown", OriginUnknown.String())
}

func TestPixelGrid_Validate(t *testing.T) {
	tests := []struct {
		name string
		grid PixelGrid
		ok   bool
	}{
		{"allocated", NewPixelGrid(3, 2), true},
		{"zero size", PixelGrid{}, true},
		{"short", PixelGrid{Width: 2, Height: 2, Pix: make([]uint8, 15)}, false},
		{"long", PixelGrid{Width: 1, Height: 1, Pix: make([]uint8, 5)}, false},
		{"negative", PixelGrid{Width: -1, Height: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.grid.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedGrid))
			assert.True(t, strings.Contains(err.Error(), "malformed pixel grid"))
		})
	}
}

func TestPixelGrid_CloneAndAccessors(t *testing.T) {
	g := NewPixelGrid(2, 1)
	g.Set(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})

	c := g.Clone()
	c.Set(1, 0, color.NRGBA{})

	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 40}, g.At(1, 0))
	assert.Equal(t, color.NRGBA{}, c.At(1, 0))
	assert.True(t, PixelGrid{Width: 0, Height: 4}.Empty())
}
