package tile

import (
	"encoding/binary"

	"github.com/lattice-io/vncd/fb"
	"github.com/lattice-io/vncd/geom"
	"github.com/lattice-io/vncd/pixfmt"
)

// BuildClientPalette precomputes, for each of a Framebuffer's indexed host
// colors, the packed pixel value a true-color client should receive —
// VNCPalette::setColor's scaling math (channel * max / 0xFFFF, then shift
// and OR together) run once per color rather than once per pixel. The
// result is nil when client is not true-color, since an indexed client
// receives raw index values plus a SetColourMapEntries message instead.
func BuildClientPalette(client pixfmt.Format, hostTable []fb.RGB) []uint32 {
	if !client.TrueColor || hostTable == nil {
		return nil
	}
	out := make([]uint32, len(hostTable))
	for i, c := range hostTable {
		r := pixfmt.Scale(uint16(c.R)<<8|uint16(c.R), client.RedMax)
		g := pixfmt.Scale(uint16(c.G)<<8|uint16(c.G), client.GreenMax)
		b := pixfmt.Scale(uint16(c.B)<<8|uint16(c.B), client.BlueMax)
		out[i] = client.Pack(r, g, b)
	}
	return out
}

// ExtractRect reads r from fbuf and converts every pixel into the client's
// negotiated pixel space, returning a row-major []uint32 of length
// r.W*r.H. palette is the result of BuildClientPalette when fbuf is
// indexed and client is true-color; it is ignored otherwise.
func ExtractRect(fbuf fb.Framebuffer, r geom.Rect, client pixfmt.Format, palette []uint32) []uint32 {
	native := fbuf.NativeFormat()
	out := make([]uint32, 0, r.W*r.H)
	indexed := fbuf.ColorTable() != nil

	for y := r.Y; y < r.Y+r.H; y++ {
		row := fbuf.Row(y)
		nbpp := native.BytesPerPixel()
		for x := r.X; x < r.X+r.W; x++ {
			off := x * nbpp
			var val uint32
			if indexed {
				idx := row[off]
				if client.TrueColor {
					if int(idx) < len(palette) {
						val = palette[idx]
					}
				} else {
					val = uint32(idx)
				}
			} else {
				packed := readNative(row[off:off+nbpp], native)
				cr, cg, cb := unpackChannels(packed, native)
				if client.TrueColor {
					rr := pixfmt.Scale(cr, client.RedMax)
					gg := pixfmt.Scale(cg, client.GreenMax)
					bb := pixfmt.Scale(cb, client.BlueMax)
					val = client.Pack(rr, gg, bb)
				} else {
					// Indexed client fed by a true-color host: no color
					// table negotiation exists for this combination, so
					// fall back to a coarse 3-3-2-style quantization
					// rather than failing the rect outright.
					val = uint32((cr>>13)<<5 | (cg>>13)<<2 | (cb >> 14))
				}
			}
			out = append(out, val)
		}
	}
	return out
}

func readNative(b []byte, f pixfmt.Format) uint32 {
	order := binary.ByteOrder(binary.BigEndian)
	if !f.BigEndian {
		order = binary.LittleEndian
	}
	switch len(b) {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(order.Uint16(b))
	case 3:
		var full [4]byte
		if f.BigEndian {
			copy(full[1:], b)
		} else {
			copy(full[:3], b)
		}
		return order.Uint32(full[:])
	default:
		return order.Uint32(b)
	}
}

// unpackChannels extracts r, g, b from a native packed true-color pixel and
// rescales each to the full 16-bit range, the inverse of pixfmt.Scale.
func unpackChannels(packed uint32, f pixfmt.Format) (r, g, b uint16) {
	rv := (packed >> f.RedShift) & uint32(f.RedMax)
	gv := (packed >> f.GreenShift) & uint32(f.GreenMax)
	bv := (packed >> f.BlueShift) & uint32(f.BlueMax)
	widen := func(v uint32, max uint16) uint16 {
		if max == 0 {
			return 0
		}
		return uint16((v * 0xFFFF) / uint32(max))
	}
	return widen(rv, f.RedMax), widen(gv, f.GreenMax), widen(bv, f.BlueMax)
}
