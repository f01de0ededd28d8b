package transform

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapmeta/internal/model"
)

func randomGrid(r *rand.Rand, w, h int) model.PixelGrid {
	g := model.NewPixelGrid(w, h)
	r.Read(g.Pix)
	return g
}

func TestGrayscale_RedSquare(t *testing.T) {
	g := model.PixelGrid{Width: 2, Height: 2, Pix: []uint8{
		255, 0, 0, 255, 255, 0, 0, 255,
		255, 0, 0, 255, 255, 0, 0, 255,
	}}

	out, err := Grayscale{}.Apply(g)
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		85, 85, 85, 255, 85, 85, 85, 255,
		85, 85, 85, 255, 85, 85, 85, 255,
	}, out.Pix)
}

func TestGrayscale_Floors(t *testing.T) {
	g := model.PixelGrid{Width: 1, Height: 1, Pix: []uint8{1, 1, 0, 9}}

	out, err := Grayscale{}.Apply(g)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 9}, out.Pix)
}

func TestGrayscale_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		g := randomGrid(r, r.Intn(9)+1, r.Intn(9)+1)
		before := g.Clone()

		out, err := Grayscale{}.Apply(g)
		require.NoError(t, err)
		assert.Equal(t, before, g, "input must not be modified")
		assert.Equal(t, g.Width, out.Width)
		assert.Equal(t, g.Height, out.Height)

		for p := 0; p < len(out.Pix); p += 4 {
			assert.Equal(t, out.Pix[p], out.Pix[p+1])
			assert.Equal(t, out.Pix[p], out.Pix[p+2])
			assert.Equal(t, g.Pix[p+3], out.Pix[p+3])
		}

		again, err := Grayscale{}.Apply(out)
		require.NoError(t, err)
		assert.Equal(t, out, again)
	}
}

func TestGrayscale_ZeroSize(t *testing.T) {
	out, err := Grayscale{}.Apply(model.NewPixelGrid(0, 0))
	require.NoError(t, err)
	assert.True(t, out.Empty())

	out, err = Grayscale{}.Apply(model.PixelGrid{Width: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Width)
}

func TestApply_Malformed(t *testing.T) {
	bad := model.PixelGrid{Width: 2, Height: 1, Pix: make([]uint8, 3)}
	for _, tr := range []Transform{Grayscale{}, Identity{}, Chain{Grayscale{}}} {
		_, err := tr.Apply(bad)
		assert.True(t, errors.Is(err, model.ErrMalformedGrid), tr.Name())
	}
}

func TestIdentity_Copies(t *testing.T) {
	g := model.PixelGrid{Width: 1, Height: 1, Pix: []uint8{1, 2, 3, 4}}
	out, err := Identity{}.Apply(g)
	require.NoError(t, err)
	out.Pix[0] = 99
	assert.Equal(t, uint8(1), g.Pix[0])
}

type invert struct{}

func (invert) Name() string { return "invert" }

func (invert) Apply(g model.PixelGrid) (model.PixelGrid, error) {
	out := g.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = 255-out.Pix[i], 255-out.Pix[i+1], 255-out.Pix[i+2]
	}
	return out, nil
}

func TestRegistry_Parse(t *testing.T) {
	r := NewRegistry(invert{})
	assert.Equal(t, []string{"grayscale", "invert", "none"}, r.Names())

	tr, err := r.Parse("")
	require.NoError(t, err)
	assert.Equal(t, Identity{}, tr)

	tr, err = r.Parse(" Grayscale ")
	require.NoError(t, err)
	assert.Equal(t, Grayscale{}, tr)

	tr, err = r.Parse("invert,none,grayscale")
	require.NoError(t, err)
	assert.Equal(t, "invert,grayscale", tr.Name())

	g := model.PixelGrid{Width: 1, Height: 1, Pix: []uint8{255, 0, 0, 255}}
	out, err := tr.Apply(g)
	require.NoError(t, err)
	assert.Equal(t, []uint8{170, 170, 170, 255}, out.Pix)

	_, err = r.Parse("sepia")
	assert.ErrorContains(t, err, "unknown transform")
}
