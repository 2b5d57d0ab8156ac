// Package fbsim is a reference Framebuffer Adapter (fb.Framebuffer) backed
// by image.RGBA, grounded on bradfitz-rfbgo's LockableImage/drawImage
// pattern: a mutex-guarded image that callers repaint through Paint and
// FillRect; fbsim itself runs no repaint goroutine. It exists so cmd/vncd and package tests have a live-looking raster
// source without a real display device, which spec §1 places out of scope.
package fbsim

import (
	"image"
	"image/color"
	"sync"

	"github.com/lattice-io/vncd/fb"
	"github.com/lattice-io/vncd/pixfmt"
)

// Display is a synthetic true-color framebuffer. Width and height are fixed
// for its lifetime, matching the Framebuffer invariant in spec §3.
type Display struct {
	mu     sync.RWMutex
	img    *image.RGBA
	cursor fb.Cursor
	hasCur bool
}

// NewDisplay allocates a w×h true-color display, initially solid black.
func NewDisplay(w, h int) *Display {
	return &Display{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (d *Display) Width() int  { b := d.img.Bounds(); return b.Dx() }
func (d *Display) Height() int { b := d.img.Bounds(); return b.Dy() }

// NativeFormat reports the 32bpp true-color layout image.RGBA stores pixels
// in: byte order R,G,B,A, little-endian shifts since each channel is a
// single byte with no cross-byte packing.
func (d *Display) NativeFormat() pixfmt.Format {
	return pixfmt.Format{
		BitsPerPixel: 32,
		Depth:        24,
		BigEndian:    false,
		TrueColor:    true,
		RedMax:       255,
		GreenMax:     255,
		BlueMax:      255,
		RedShift:     0,
		GreenShift:   8,
		BlueShift:    16,
	}
}

// Row returns a freshly packed copy of scanline y in NativeFormat order.
// fbsim does not keep its backing store in wire order, so this is not
// zero-copy; production adapters backed by a device framebuffer typically
// can return a direct slice instead.
func (d *Display) Row(y int) []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w := d.Width()
	out := make([]byte, w*4)
	base := y * d.img.Stride
	copy(out, d.img.Pix[base:base+w*4])
	return out
}

// ColorTable is nil: fbsim is always true-color.
func (d *Display) ColorTable() []fb.RGB { return nil }

func (d *Display) CursorShape() (fb.Cursor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cursor, d.hasCur
}

// SetCursor installs a new pointer cursor shape, or clears it when c is the
// zero value and ok is false.
func (d *Display) SetCursor(c fb.Cursor, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor, d.hasCur = c, ok
}

// Paint replaces the entire raster under lock with fn's output, the same
// lock granularity the teacher's pushImage uses around its LockableImage.
func (d *Display) Paint(fn func(img *image.RGBA)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.img)
}

// FillRect paints a solid color into a sub-rectangle, a convenience used by
// tests and by cmd/vncd to paint its static background.
func (d *Display) FillRect(x, y, w, h int, c color.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.img.Bounds()
	x2, y2 := min(x+w, b.Dx()), min(y+h, b.Dy())
	for yy := y; yy < y2; yy++ {
		for xx := x; xx < x2; xx++ {
			d.img.SetRGBA(xx, yy, c)
		}
	}
}
