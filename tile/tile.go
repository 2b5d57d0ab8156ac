// Package tile implements the common tile-ingestion step shared by every
// encoder in package encoding (spec §4.4): splitting a rect into fixed-size
// tiles and building the color histogram each codec uses to pick its
// subencoding.
//
// Tile/CreateTiles follow CambridgeSoftwareLtd-go-vnc/zrle/zrle.go's Tile
// and CreateTiles shapes, generalized to an arbitrary tile size so the same
// type serves both the 16x16 tiles TRLE/Hextile use and the 64x64 tiles
// ZRLE uses. The histogram/packing helpers (ColorInfo, PackDepth,
// PackIndices) are
// grounded on original_source/mac-cpp-source/VNCEncodeTRLE.cpp's
// getDepth/nativeToColors/nativeToPacked routines.
package tile

import "github.com/lattice-io/vncd/geom"

// Tile is one fixed-size (or edge-clipped) block of a rect being encoded.
// Pixels holds Width*Height wire-packed index or true-color words, one
// uint32 per pixel, row-major, already in the client's negotiated space
// (index value for indexed formats, packed RGB for true-color).
type Tile struct {
	Rect   geom.Rect
	Pixels []uint32
}

// CreateTiles splits r into a row-major grid of size×size tiles, clipping
// the final row/column to r's edges — the same edge-clipping
// CambridgeSoftwareLtd-go-vnc/zrle.CreateTiles performs.
func CreateTiles(r geom.Rect, size int) []geom.Rect {
	var out []geom.Rect
	for y := r.Y; y < r.Bottom(); y += size {
		h := size
		if y+h > r.Bottom() {
			h = r.Bottom() - y
		}
		for x := r.X; x < r.Right(); x += size {
			w := size
			if x+w > r.Right() {
				w = r.Right() - x
			}
			out = append(out, geom.Rect{X: x, Y: y, W: w, H: h})
		}
	}
	return out
}

// ColorInfo is the histogram VNCEncodeTRLE.cpp calls ColorInfo: the set of
// distinct pixel values in a tile, in first-seen order, capped at
// MaxPaletteColors (beyond that the tile can't use a packed-palette
// subencoding).
type ColorInfo struct {
	Colors []uint32
}

// MaxPaletteColors is the largest distinct-color count a packed-palette
// tile can represent (spec §4.4.3/§4.4.4): above this the tile must fall
// back to plain RLE or raw.
const MaxPaletteColors = 16

// Histogram scans a tile's pixels and returns its ColorInfo. If more than
// MaxPaletteColors distinct values are found, scanning stops early and ok
// is false — the caller only needed to know the tile isn't a palette
// candidate.
func Histogram(pixels []uint32) (info ColorInfo, ok bool) {
	seen := make(map[uint32]int, MaxPaletteColors+1)
	for _, p := range pixels {
		if _, have := seen[p]; have {
			continue
		}
		if len(info.Colors) == MaxPaletteColors {
			return ColorInfo{}, false
		}
		seen[p] = len(info.Colors)
		info.Colors = append(info.Colors, p)
	}
	return info, true
}

// IndexOf returns the palette index of color within info, or -1.
func (c ColorInfo) IndexOf(color uint32) int {
	for i, v := range c.Colors {
		if v == color {
			return i
		}
	}
	return -1
}

// PackDepth returns the packed-palette bit depth VNCEncodeTRLE.cpp's
// getDepth selects for a palette of n colors: 1 bit for n<=2, 2 for n<=4,
// 4 for n<=16.
func PackDepth(n int) int {
	switch {
	case n <= 2:
		return 1
	case n <= 4:
		return 2
	default:
		return 4
	}
}

// PackIndices bit-packs a row of palette indices at the given depth
// (1, 2, or 4 bits per index), MSB-first within each byte, left-justified
// with zero padding in the last byte of the row — the packed-palette row
// layout RFB's TRLE/Hextile packed-pixels subencoding requires.
func PackIndices(indices []int, depth int) []byte {
	perByte := 8 / depth
	rowBytes := (len(indices) + perByte - 1) / perByte
	out := make([]byte, rowBytes)
	for i, idx := range indices {
		byteIdx := i / perByte
		shift := 8 - depth*(i%perByte+1)
		out[byteIdx] |= byte(idx) << uint(shift)
	}
	return out
}
