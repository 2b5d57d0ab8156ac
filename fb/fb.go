// Package fb defines the Framebuffer Adapter boundary (spec §4.1): the
// narrow interface the rest of vncd uses to read a host raster without
// knowing how that raster is produced or stored. The host device and any
// color table backing it are explicitly out of scope (spec §1 Non-goals);
// this package only defines the seam an adapter must satisfy.
package fb

import "github.com/lattice-io/vncd/pixfmt"

// Framebuffer is a read-only snapshot source for a single raster surface.
// Implementations must be safe for concurrent calls to Row from the
// session goroutine while some other goroutine (e.g. a simulated display
// driver) mutates the underlying raster; Row itself must return a
// consistent, unchanging view.
type Framebuffer interface {
	// Width and Height are the raster dimensions in pixels. Per spec §3
	// these are invariant for the lifetime of the Framebuffer.
	Width() int
	Height() int

	// NativeFormat is the format pixels are naturally stored in. For an
	// indexed adapter this is the server's fixed depth (e.g. 8-bit with a
	// 3-3-2 default palette); for a true-color adapter it is whatever the
	// backing image type already uses.
	NativeFormat() pixfmt.Format

	// Row returns the pixel row at Y, left-justified in NativeFormat,
	// tightly packed with no padding, valid until the next call to
	// Row. Implementations that cannot provide a zero-copy view may
	// return a freshly rendered row; callers must not retain the slice
	// past their next call into the Framebuffer.
	Row(y int) []byte

	// ColorTable returns the current 256-entry RGB palette for an indexed
	// NativeFormat, or nil if NativeFormat is true-color. Index i maps to
	// ColorTable()[i]; entries beyond the format's actual color count
	// (e.g. a 3-3-2 format only uses 256 of them fully) are zero-filled.
	ColorTable() []RGB

	// CursorShape returns the current pointer cursor bitmap and hotspot
	// for the Cursor pseudo-encoding (spec §4.4.5), or ok=false if no
	// cursor has been set. The returned Cursor must not be mutated by the
	// caller.
	CursorShape() (c Cursor, ok bool)
}

// RGB is one 8-bit-per-channel color table entry.
type RGB struct {
	R, G, B uint8
}

// Cursor is a small raster with a per-pixel bitmask, as spec §4.4.5
// requires for the Cursor pseudo-encoding.
type Cursor struct {
	Width, Height int
	HotX, HotY    int
	// Pixels holds Width*Height RGB entries in NativeFormat color space,
	// row-major.
	Pixels []RGB
	// Mask holds one bit per pixel, row-major, MSB first per row, padded
	// to a byte boundary per row per RFB §7.7.2's bitmask convention.
	Mask []byte
}

// Checksum returns a cheap order-sensitive hash of the cursor's pixel and
// mask bytes, used by the Cursor encoder to detect shape changes without
// re-sending an unchanged cursor (spec §4.4.5).
func (c Cursor) Checksum() uint32 {
	var h uint32 = 2166136261
	mix := func(b byte) {
		h ^= uint32(b)
		h *= 16777619
	}
	mix(byte(c.Width))
	mix(byte(c.Width >> 8))
	mix(byte(c.Height))
	mix(byte(c.Height >> 8))
	for _, p := range c.Pixels {
		mix(p.R)
		mix(p.G)
		mix(p.B)
	}
	for _, b := range c.Mask {
		mix(b)
	}
	return h
}
