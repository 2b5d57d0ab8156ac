package tile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-io/vncd/geom"
)

func TestCreateTiles_ClipsTrailingEdge(t *testing.T) {
	tiles := CreateTiles(geom.Rect{X: 0, Y: 0, W: 20, H: 18}, 16)
	require.Len(t, tiles, 4)
	require.Equal(t, geom.Rect{X: 0, Y: 0, W: 16, H: 16}, tiles[0])
	require.Equal(t, geom.Rect{X: 16, Y: 0, W: 4, H: 16}, tiles[1])
	require.Equal(t, geom.Rect{X: 0, Y: 16, W: 16, H: 2}, tiles[2])
	require.Equal(t, geom.Rect{X: 16, Y: 16, W: 4, H: 2}, tiles[3])
}

func TestHistogram_CapsAtMaxPaletteColors(t *testing.T) {
	pixels := make([]uint32, 17)
	for i := range pixels {
		pixels[i] = uint32(i)
	}
	_, ok := Histogram(pixels)
	require.False(t, ok)
}

func TestHistogram_PreservesFirstSeenOrder(t *testing.T) {
	info, ok := Histogram([]uint32{5, 5, 3, 5, 9})
	require.True(t, ok)
	require.Equal(t, []uint32{5, 3, 9}, info.Colors)
	require.Equal(t, 0, info.IndexOf(5))
	require.Equal(t, 1, info.IndexOf(3))
	require.Equal(t, -1, info.IndexOf(42))
}

func TestPackDepth_SelectsSmallestFittingWidth(t *testing.T) {
	require.Equal(t, 1, PackDepth(2))
	require.Equal(t, 2, PackDepth(3))
	require.Equal(t, 2, PackDepth(4))
	require.Equal(t, 4, PackDepth(5))
	require.Equal(t, 4, PackDepth(16))
}

func TestPackIndices_MSBFirstWithZeroPadding(t *testing.T) {
	// depth=2: indices 1,2,3 pack into one byte as 01 10 11 00.
	out := PackIndices([]int{1, 2, 3}, 2)
	require.Equal(t, []byte{0b01_10_11_00}, out)
}
