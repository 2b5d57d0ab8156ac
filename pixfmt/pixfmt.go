// Package pixfmt implements the client-negotiated PixelFormat (spec §4.3)
// and the PIXEL/CPIXEL wire emission rules used by every tile codec.
package pixfmt

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Format mirrors the wire PIXEL_FORMAT structure (RFB §7.4). Field names
// follow the teacher's PixelFormat (bigangryrobot-go-vnc/vncclient.go),
// generalized from uint8 flag bytes to bool since this struct is built and
// compared by Go code far more often than it is marshaled.
type Format struct {
	BitsPerPixel uint8 // 8, 16, or 32
	Depth        uint8
	BigEndian    bool
	TrueColor    bool
	RedMax       uint16
	GreenMax     uint16
	BlueMax      uint16
	RedShift     uint8
	GreenShift   uint8
	BlueShift    uint8
}

// DefaultFormat is the ServerInit default format from spec §6: 8bpp
// true-color packed 3-3-2 (3 red bits, 3 green bits, 2 blue bits). A
// genuinely indexed client (TrueColor=false) instead receives palette
// indices plus a SetColourMapEntries message.
var DefaultFormat = Format{
	BitsPerPixel: 8,
	Depth:        8,
	BigEndian:    true,
	TrueColor:    true,
	RedMax:       7,
	GreenMax:     7,
	BlueMax:      3,
	RedShift:     5,
	GreenShift:   2,
	BlueShift:    0,
}

// BytesPerPixel is bits_per_pixel/8.
func (f Format) BytesPerPixel() int { return int(f.BitsPerPixel) / 8 }

// BytesPerCPixel is bytes_per_pixel except that a 32-bpp true-color format
// whose color channels fit within 24 bits collapses to 3 (spec §3).
func (f Format) BytesPerCPixel() int {
	if f.BitsPerPixel == 32 && f.TrueColor && f.fitsIn24Bits() {
		return 3
	}
	return f.BytesPerPixel()
}

func (f Format) fitsIn24Bits() bool {
	maxShift := func(max uint16, shift uint8) uint8 {
		bits := uint8(0)
		for m := max; m != 0; m >>= 1 {
			bits++
		}
		return shift + bits
	}
	top := maxShift(f.RedMax, f.RedShift)
	if s := maxShift(f.GreenMax, f.GreenShift); s > top {
		top = s
	}
	if s := maxShift(f.BlueMax, f.BlueShift); s > top {
		top = s
	}
	return top <= 24
}

// Valid reports whether the format is one the server can negotiate to
// (spec §4.3): any true-color format with a legal BPP, or an indexed
// format whose depth matches nativeDepth.
func (f Format) Valid(nativeDepth uint8) error {
	switch f.BitsPerPixel {
	case 8, 16, 32:
	default:
		return fmt.Errorf("unsupported bits-per-pixel %d", f.BitsPerPixel)
	}
	if !f.TrueColor && f.Depth != nativeDepth {
		return fmt.Errorf("indexed format depth %d does not match native depth %d", f.Depth, nativeDepth)
	}
	return nil
}

// ReadFrom decodes the 16-byte wire PIXEL_FORMAT structure, including its
// trailing 3 padding bytes, from r.
func (f *Format) ReadFrom(r io.Reader) error {
	var raw [16]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return err
	}
	f.BitsPerPixel = raw[0]
	f.Depth = raw[1]
	f.BigEndian = raw[2] != 0
	f.TrueColor = raw[3] != 0
	f.RedMax = binary.BigEndian.Uint16(raw[4:6])
	f.GreenMax = binary.BigEndian.Uint16(raw[6:8])
	f.BlueMax = binary.BigEndian.Uint16(raw[8:10])
	f.RedShift = raw[10]
	f.GreenShift = raw[11]
	f.BlueShift = raw[12]
	// raw[13:16] is padding.
	return nil
}

// WriteTo encodes the 16-byte wire PIXEL_FORMAT structure to w.
func (f Format) WriteTo(w io.Writer) error {
	var raw [16]byte
	raw[0] = f.BitsPerPixel
	raw[1] = f.Depth
	if f.BigEndian {
		raw[2] = 1
	}
	if f.TrueColor {
		raw[3] = 1
	}
	binary.BigEndian.PutUint16(raw[4:6], f.RedMax)
	binary.BigEndian.PutUint16(raw[6:8], f.GreenMax)
	binary.BigEndian.PutUint16(raw[8:10], f.BlueMax)
	raw[10] = f.RedShift
	raw[11] = f.GreenShift
	raw[12] = f.BlueShift
	_, err := w.Write(raw[:])
	return err
}

// byteOrder returns the wire byte order for this format.
func (f Format) byteOrder() binary.ByteOrder {
	if f.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// EmitPixel writes one PIXEL (BytesPerPixel() bytes) for the 32-bit packed
// wire value `packed` (already shifted/masked by the caller) into dst,
// which must be at least BytesPerPixel() long. Bytes beyond the pixel
// width are left untouched (read-modify-write semantics per spec §4.3).
func (f Format) EmitPixel(dst []byte, packed uint32) {
	emitPacked(dst, packed, f.BytesPerPixel(), f.byteOrder())
}

// EmitCPixel writes one CPIXEL (BytesPerCPixel() bytes).
func (f Format) EmitCPixel(dst []byte, packed uint32) {
	n := f.BytesPerCPixel()
	if n == f.BytesPerPixel() {
		emitPacked(dst, packed, n, f.byteOrder())
		return
	}
	// 32bpp true-color collapsed to 3 bytes: per spec §4.3, when
	// big_endian the value is left-justified before truncation to the
	// high 3 bytes; when little-endian the low 3 bytes already carry
	// every significant bit since bits above bit 23 are unused.
	if f.BigEndian {
		var full [4]byte
		binary.BigEndian.PutUint32(full[:], packed<<8)
		copy(dst[:3], full[:3])
	} else {
		var full [4]byte
		binary.LittleEndian.PutUint32(full[:], packed)
		copy(dst[:3], full[:3])
	}
}

func emitPacked(dst []byte, packed uint32, n int, order binary.ByteOrder) {
	switch n {
	case 1:
		dst[0] = byte(packed)
	case 2:
		order.PutUint16(dst, uint16(packed))
	case 3:
		var full [4]byte
		order.PutUint32(full[:], packed)
		if order == binary.BigEndian {
			copy(dst[:3], full[1:4])
		} else {
			copy(dst[:3], full[:3])
		}
	case 4:
		order.PutUint32(dst, packed)
	}
}

// Pack combines 16-bit r/g/b channels (already scaled to this format's
// *Max values) into a single wire-shifted uint32 using the format's
// shifts. True-color only.
func (f Format) Pack(r, g, b uint16) uint32 {
	return (uint32(r) << f.RedShift) | (uint32(g) << f.GreenShift) | (uint32(b) << f.BlueShift)
}

// Scale converts a 16-bit channel value to the range [0, max] as spec §4.3
// describes: r' = r16 * red_max / 0xFFFF.
func Scale(v16 uint16, max uint16) uint16 {
	return uint16((uint32(v16) * uint32(max)) / 0xFFFF)
}
