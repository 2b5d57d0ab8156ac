package encoding

import (
	"bytes"
	"io"

	"github.com/lattice-io/vncd/geom"
	"github.com/lattice-io/vncd/pixfmt"
	"github.com/lattice-io/vncd/tile"
)

// TRLE subencoding header bytes (RFB §7.7.4), plus one non-standard
// extension: 127 means "packed palette, reusing the previous tile's
// palette verbatim" (no palette bytes follow), grounded on
// original_source/mac-cpp-source/VNCEncodeTRLE.cpp's TilePackedReused
// constant — the Mac encoder adds this exact reuse header to skip
// re-transmitting an unchanged palette between adjacent tiles.
const (
	trleRaw            = 0
	trleSolid          = 1
	trlePackedReused   = 127
	trlePlainRLE       = 128
)

// TRLE implements the TRLE tile codec (spec §4.4.3): 16x16 tiles, each
// Solid, a packed palette of up to 16 colors (optionally reusing the
// previous tile's palette), or a plain run-length stream. The choice is
// made from the color count alone; the Raw subencoding is never emitted.
type TRLE struct {
	lastPalette []uint32
}

func NewTRLE() *TRLE { return &TRLE{} }

func (*TRLE) Type() int32 { return TypeTRLE }
func (t *TRLE) Reset()    { t.lastPalette = nil }

func (t *TRLE) EncodeRect(w io.Writer, pixels []uint32, rect geom.Rect, client pixfmt.Format) error {
	out := t.encodeTiles(pixels, rect, client, 16)
	_, err := w.Write(out)
	return err
}

// encodeTiles runs the shared palette/RLE tile logic over rect at the
// given tile size, returning the uncompressed tile stream. ZRLE reuses
// this at tileSize 64 and deflates the result; TRLE uses it directly at
// tileSize 16.
func (t *TRLE) encodeTiles(pixels []uint32, rect geom.Rect, client pixfmt.Format, tileSize int) []byte {
	var out bytes.Buffer
	for _, tr := range tile.CreateTiles(rect, tileSize) {
		tp := make([]uint32, tr.W*tr.H)
		for y := 0; y < tr.H; y++ {
			for x := 0; x < tr.W; x++ {
				tp[y*tr.W+x] = pixelAt(pixels, rect, tr.X+x, tr.Y+y)
			}
		}
		t.encodeTile(&out, tp, tr.W, tr.H, client)
	}
	return out.Bytes()
}

func (t *TRLE) encodeTile(dst *bytes.Buffer, px []uint32, w, h int, client pixfmt.Format) {
	info, ok := tile.Histogram(px)

	if ok && len(info.Colors) == 1 {
		dst.WriteByte(trleSolid)
		t.emitCPixel(dst, info.Colors[0], client)
		t.lastPalette = nil
		return
	}

	if ok {
		if samePalette(t.lastPalette, info.Colors) {
			dst.WriteByte(trlePackedReused)
			t.writePackedIndices(dst, px, w, h, t.lastPalette)
			return
		}
		dst.WriteByte(byte(len(info.Colors)))
		for _, c := range info.Colors {
			t.emitCPixel(dst, c, client)
		}
		t.writePackedIndices(dst, px, w, h, info.Colors)
		t.lastPalette = append([]uint32(nil), info.Colors...)
		return
	}

	// More than tile.MaxPaletteColors distinct colors: fall back to plain
	// run-length encoding of the whole tile as one pixel stream.
	dst.WriteByte(trlePlainRLE)
	t.writePlainRLE(dst, px, client)
	t.lastPalette = nil
}

func (t *TRLE) writePackedIndices(dst *bytes.Buffer, px []uint32, w, h int, palette []uint32) {
	depth := tile.PackDepth(len(palette))
	idx := func(v uint32) int {
		for i, c := range palette {
			if c == v {
				return i
			}
		}
		return 0
	}
	for y := 0; y < h; y++ {
		row := make([]int, w)
		for x := 0; x < w; x++ {
			row[x] = idx(px[y*w+x])
		}
		dst.Write(tile.PackIndices(row, depth))
	}
}

func (t *TRLE) writePlainRLE(dst *bytes.Buffer, px []uint32, client pixfmt.Format) {
	for i := 0; i < len(px); {
		color := px[i]
		run := 1
		for i+run < len(px) && px[i+run] == color {
			run++
		}
		t.emitCPixel(dst, color, client)
		rem := run - 1
		for rem >= 255 {
			dst.WriteByte(255)
			rem -= 255
		}
		dst.WriteByte(byte(rem))
		i += run
	}
}

func (t *TRLE) emitCPixel(dst *bytes.Buffer, v uint32, client pixfmt.Format) {
	buf := make([]byte, client.BytesPerCPixel())
	client.EmitCPixel(buf, v)
	dst.Write(buf)
}

func samePalette(a, b []uint32) bool {
	if a == nil || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
