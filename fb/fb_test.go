package fb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursor_ChecksumStableForIdenticalShapes(t *testing.T) {
	a := Cursor{Width: 4, Height: 4, Pixels: []RGB{{R: 1}, {G: 2}, {B: 3}}, Mask: []byte{0xF0, 0x0F}}
	b := Cursor{Width: 4, Height: 4, Pixels: []RGB{{R: 1}, {G: 2}, {B: 3}}, Mask: []byte{0xF0, 0x0F}}
	require.Equal(t, a.Checksum(), b.Checksum())
}

func TestCursor_ChecksumChangesWithPixels(t *testing.T) {
	a := Cursor{Width: 2, Height: 1, Pixels: []RGB{{R: 1}, {G: 2}}, Mask: []byte{0xC0}}
	b := Cursor{Width: 2, Height: 1, Pixels: []RGB{{R: 9}, {G: 2}}, Mask: []byte{0xC0}}
	require.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestCursor_ChecksumChangesWithDimensions(t *testing.T) {
	a := Cursor{Width: 2, Height: 1, Mask: []byte{0xC0}}
	b := Cursor{Width: 1, Height: 2, Mask: []byte{0xC0}}
	require.NotEqual(t, a.Checksum(), b.Checksum())
}
