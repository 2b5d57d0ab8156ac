package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-io/vncd/geom"
	"github.com/lattice-io/vncd/pixfmt"
)

var client16 = pixfmt.Format{BitsPerPixel: 16, Depth: 16, TrueColor: true, RedMax: 31, GreenMax: 63, BlueMax: 31, RedShift: 11, GreenShift: 5, BlueShift: 0}

func solidTile(v uint32) []uint32 {
	px := make([]uint32, 16*16)
	for i := range px {
		px[i] = v
	}
	return px
}

func TestTRLE_SolidTileEmitsHeaderOne(t *testing.T) {
	trle := NewTRLE()
	var out bytes.Buffer
	rect := geom.Rect{X: 0, Y: 0, W: 16, H: 16}
	require.NoError(t, trle.EncodeRect(&out, solidTile(7), rect, client16))

	b := out.Bytes()
	require.Equal(t, byte(trleSolid), b[0])
	require.Equal(t, 1+client16.BytesPerCPixel(), len(b))
}

func TestTRLE_TwoColorTileEmitsPackedPalette(t *testing.T) {
	trle := NewTRLE()
	px := solidTile(1)
	px[0] = 9
	px[17] = 9
	var out bytes.Buffer
	rect := geom.Rect{X: 0, Y: 0, W: 16, H: 16}
	require.NoError(t, trle.EncodeRect(&out, px, rect, client16))

	header := out.Bytes()[0]
	require.Equal(t, byte(2), header, "two distinct colors should emit a 2-color packed palette header")
}

func TestTRLE_RepeatedPaletteReusesHeader127(t *testing.T) {
	trle := NewTRLE()
	px := solidTile(1)
	px[0] = 9

	rect := geom.Rect{X: 0, Y: 0, W: 16, H: 16}

	var first bytes.Buffer
	require.NoError(t, trle.EncodeRect(&first, px, rect, client16))
	require.Equal(t, byte(2), first.Bytes()[0])

	var second bytes.Buffer
	require.NoError(t, trle.EncodeRect(&second, px, rect, client16))
	require.Equal(t, byte(trlePackedReused), second.Bytes()[0], "identical palette on the next tile should reuse header 127")
}

func TestTRLE_ManyColorsFallsBackToPlainRLE(t *testing.T) {
	trle := NewTRLE()
	px := make([]uint32, 16*16)
	for i := range px {
		px[i] = uint32(i % 200)
	}
	var out bytes.Buffer
	rect := geom.Rect{X: 0, Y: 0, W: 16, H: 16}
	require.NoError(t, trle.EncodeRect(&out, px, rect, client16))
	require.Equal(t, byte(trlePlainRLE), out.Bytes()[0])
}
