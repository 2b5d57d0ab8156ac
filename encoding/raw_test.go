package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-io/vncd/geom"
	"github.com/lattice-io/vncd/pixfmt"
)

func TestRaw_RoundTrip8BPP(t *testing.T) {
	client := pixfmt.Format{BitsPerPixel: 8, Depth: 8, TrueColor: true, RedMax: 7, GreenMax: 7, BlueMax: 3, RedShift: 5, GreenShift: 2, BlueShift: 0}
	rect := geom.Rect{X: 0, Y: 0, W: 4, H: 2}
	pixels := []uint32{1, 2, 3, 4, 5, 6, 7, 8}

	var buf bytes.Buffer
	require.NoError(t, NewRaw().EncodeRect(&buf, pixels, rect, client))
	require.Equal(t, rect.W*rect.H*client.BytesPerPixel(), buf.Len())

	for i, want := range pixels {
		require.Equal(t, byte(want), buf.Bytes()[i])
	}
}
