// Package encoding implements the tile codecs named in spec §4.4: Raw,
// Hextile, TRLE, ZRLE, and the Cursor pseudo-encoding. Each Encoder
// consumes pixels already converted into the client's negotiated format by
// package tile's extraction helpers and writes the wire-format rectangle
// body (everything after the RECTANGLE_HEADER) to an io.Writer.
package encoding

import (
	"io"

	"github.com/lattice-io/vncd/geom"
	"github.com/lattice-io/vncd/pixfmt"
)

// Encoding numbers from RFB §7.7, reused verbatim since they are wire
// protocol constants rather than anything specific to the teacher.
const (
	TypeRaw     int32 = 0
	TypeHextile int32 = 5
	TypeTRLE    int32 = 15
	TypeZRLE    int32 = 16
	TypeCursor  int32 = -239
	TypeDesktopSize int32 = -223
	TypeExtendedDesktopSize int32 = -308
	TypeContinuousUpdates int32 = -313
)

// Encoder encodes one already-converted rectangle of client-format pixel
// values into its wire representation.
type Encoder interface {
	// Type is the wire encoding number sent in RECTANGLE_HEADER.
	Type() int32
	// EncodeRect writes pixels (row-major, len == rect.W*rect.H, each
	// value already packed/scaled into client's space by package tile)
	// for rect to w.
	EncodeRect(w io.Writer, pixels []uint32, rect geom.Rect, client pixfmt.Format) error
	// Reset clears any cross-rectangle state an encoder keeps (palette
	// reuse, background/foreground color memory) — called at the start
	// of every FramebufferUpdate so state never leaks across updates
	// that might be seen by a different client after a reconnect.
	Reset()
}

func pixelAt(pixels []uint32, rect geom.Rect, x, y int) uint32 {
	return pixels[(y-rect.Y)*rect.W+(x-rect.X)]
}
