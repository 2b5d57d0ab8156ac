package encoding

import (
	"io"

	"github.com/lattice-io/vncd/fb"
	"github.com/lattice-io/vncd/pixfmt"
)

// Cursor implements the Cursor pseudo-encoding (spec §4.4.5, encoding
// number -239): a pixel bitmap plus an AND-style bitmask for the pointer
// shape, sent only when the shape changes. Grounded on
// original_source/mac-cpp-source/VNCEncodeCursor.cpp: a checksum over the
// cursor source data gates re-sending an unchanged shape, and the
// bitmask/bitmap pair is sent together as one rectangle whose X/Y carry
// the hotspot instead of a screen position.
type Cursor struct {
	lastChecksum uint32
	haveLast     bool
}

func NewCursor() *Cursor { return &Cursor{} }

// Changed reports whether c differs from the last shape this encoder sent,
// using fb.Cursor.Checksum the way VNCEncodeCursor::needsUpdate compares
// against its stored checksum rather than diffing pixels.
func (e *Cursor) Changed(c fb.Cursor) bool {
	sum := c.Checksum()
	return !e.haveLast || sum != e.lastChecksum
}

// Reset forces the next Changed call to report a change, mirroring
// VNCEncodeCursor::clear's "force an update" trick.
func (e *Cursor) Reset() { e.haveLast = false }

// EncodeShape writes the pixel bitmap followed by the row-padded bitmask
// for c, in client's negotiated pixel format, and records c's checksum so
// a subsequent unchanged shape is skipped. Callers are responsible for
// writing the RECTANGLE_HEADER with x=c.HotX, y=c.HotY, w=c.Width,
// h=c.Height, encoding=-239 before calling EncodeShape.
func (e *Cursor) EncodeShape(w io.Writer, c fb.Cursor, client pixfmt.Format) error {
	bpp := client.BytesPerPixel()
	buf := make([]byte, c.Width*c.Height*bpp)
	for i, p := range c.Pixels {
		r := pixfmt.Scale(uint16(p.R)<<8|uint16(p.R), client.RedMax)
		g := pixfmt.Scale(uint16(p.G)<<8|uint16(p.G), client.GreenMax)
		b := pixfmt.Scale(uint16(p.B)<<8|uint16(p.B), client.BlueMax)
		client.EmitPixel(buf[i*bpp:(i+1)*bpp], client.Pack(r, g, b))
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}
	if _, err := w.Write(c.Mask); err != nil {
		return err
	}
	e.lastChecksum, e.haveLast = c.Checksum(), true
	return nil
}

// MaskRowBytes returns the per-row byte count of a w-pixel-wide bitmask,
// padded up to a byte boundary, per RFB §7.7.2.
func MaskRowBytes(w int) int { return (w + 7) / 8 }
