package fbsim

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-io/vncd/fb"
)

func TestDisplay_FillRectAndRowRoundTrip(t *testing.T) {
	d := NewDisplay(4, 2)
	d.FillRect(0, 0, 4, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	row := d.Row(0)
	require.Len(t, row, 16)
	require.Equal(t, byte(10), row[0])
	require.Equal(t, byte(20), row[1])
	require.Equal(t, byte(30), row[2])
	require.Equal(t, byte(255), row[3])
}

func TestDisplay_FillRectClipsToBounds(t *testing.T) {
	d := NewDisplay(2, 2)
	require.NotPanics(t, func() {
		d.FillRect(1, 1, 10, 10, color.RGBA{R: 1, G: 1, B: 1, A: 1})
	})
}

func TestDisplay_CursorShapeDefaultsToUnset(t *testing.T) {
	d := NewDisplay(4, 4)
	_, ok := d.CursorShape()
	require.False(t, ok)
}

func TestDisplay_SetCursorIsObservable(t *testing.T) {
	d := NewDisplay(4, 4)
	want := fb.Cursor{Width: 3, Height: 3, Pixels: make([]fb.RGB, 9), Mask: []byte{0xFF, 0xFF, 0xFF}}
	d.SetCursor(want, true)

	got, ok := d.CursorShape()
	require.True(t, ok)
	require.Equal(t, want, got)
}
