// Package dirty implements the Dirty-Region Detector (spec §4.2): an
// additive row/column hash that finds the smallest rectangle bounding every
// pixel that changed since the last report, without ever touching pixel
// data directly when computing comparisons.
//
// The algorithm is grounded on original_source/mac-cpp-source/VNCScreenHash.cpp:
// each row's 32-bit words are summed into a row hash and, independently,
// accumulated per-word-column into a column hash. Comparing the previous
// and next hash arrays element-by-element finds the first and last
// differing row and the first and last differing column; multiplying the
// column word-index by pixels-per-word converts that back into an X range.
// The Mac source also delays delivery by one full hash pass (accumulating
// newly-found dirt into a pending rect rather than reporting it the moment
// it's seen) so that a chain of fast-changing pixels coalesces into one
// rectangle instead of a flood of one-tick updates; this package preserves
// that two-pass debounce.
package dirty

import (
	"encoding/binary"

	"github.com/lattice-io/vncd/fb"
	"github.com/lattice-io/vncd/geom"
)

// Detector tracks per-row and per-column additive hashes across successive
// calls to Tick and reports the smallest rect bounding all detected
// changes, debounced across DebounceInterval ticks the way the Mac source
// defers delivery by one VBL-task pass.
type Detector struct {
	fb fb.Framebuffer

	bytesPerPixel int
	pixelsPerWord int
	colWords      int

	rowPrev, rowNext []uint32
	colPrev, colNext []uint32

	// DebounceInterval is how many Tick calls occur between full hash
	// passes, mirroring the Mac source's 16-VBL chunking constant. One
	// hash pass happens every DebounceInterval ticks, so a change can
	// take up to 2*DebounceInterval ticks to be reported, matching the
	// two-pass accumulate-then-deliver rule below.
	DebounceInterval int

	ticksLeft int
	pending   geom.Rect
}

// NewDetector builds a Detector sized to fbuf's current dimensions and
// native pixel format. DebounceInterval defaults to 16 ticks, the Mac
// source's constant, if interval <= 0.
func NewDetector(fbuf fb.Framebuffer, interval int) *Detector {
	if interval <= 0 {
		interval = 16
	}
	bpp := fbuf.NativeFormat().BytesPerPixel()
	ppw := 4 / bpp
	if ppw == 0 {
		ppw = 1
	}
	stride := fbuf.Width() * bpp
	colWords := (stride + 3) / 4
	h := fbuf.Height()
	return &Detector{
		fb:               fbuf,
		bytesPerPixel:    bpp,
		pixelsPerWord:    ppw,
		colWords:         colWords,
		rowPrev:          make([]uint32, h),
		rowNext:          make([]uint32, h),
		colPrev:          make([]uint32, colWords),
		colNext:          make([]uint32, colWords),
		DebounceInterval: interval,
		ticksLeft:        interval,
	}
}

// Tick advances the detector by one retrace. It returns (rect, true) on the
// tick where a pending, debounced change is delivered, or (zero, false)
// otherwise — including every intermediate tick before a hash pass is due.
func (d *Detector) Tick() (geom.Rect, bool) {
	d.ticksLeft--
	if d.ticksLeft > 0 {
		return geom.Rect{}, false
	}
	d.ticksLeft = d.DebounceInterval

	d.computeHashes()
	newDirt := d.diffRect()
	d.rowPrev, d.rowNext = d.rowNext, d.rowPrev
	d.colPrev, d.colNext = d.colNext, d.colPrev

	hadPending := !d.pending.Empty()
	d.pending = d.pending.Union(newDirt)

	if hadPending {
		out := d.pending
		d.pending = geom.Rect{}
		return out, true
	}
	return geom.Rect{}, false
}

// computeHashes fills rowNext/colNext from a fresh read of every row.
func (d *Detector) computeHashes() {
	for i := range d.colNext {
		d.colNext[i] = 0
	}
	for y := 0; y < len(d.rowNext); y++ {
		row := d.fb.Row(y)
		var rowSum uint32
		for i := 0; i+4 <= len(row) && i/4 < d.colWords; i += 4 {
			word := binary.BigEndian.Uint32(row[i : i+4])
			rowSum += word
			d.colNext[i/4] += word
		}
		if rem := len(row) % 4; rem != 0 {
			var tail [4]byte
			copy(tail[:rem], row[len(row)-rem:])
			word := binary.BigEndian.Uint32(tail[:])
			rowSum += word
			d.colNext[d.colWords-1] += word
		}
		d.rowNext[y] = rowSum
	}
}

// diffRect compares rowPrev/rowNext and colPrev/colNext to find the
// smallest bounding rect of every element that differs, exactly as
// VNCScreenHash::computeDirty does.
func (d *Detector) diffRect() geom.Rect {
	x1 := 0
	for x1 < d.colWords && d.colNext[x1] == d.colPrev[x1] {
		x1++
	}
	y1 := 0
	for y1 < len(d.rowNext) && d.rowNext[y1] == d.rowPrev[y1] {
		y1++
	}
	x2 := d.colWords - 1
	for x2 > x1 && d.colNext[x2] == d.colPrev[x2] {
		x2--
	}
	y2 := len(d.rowNext) - 1
	for y2 > y1 && d.rowNext[y2] == d.rowPrev[y2] {
		y2--
	}
	x2++
	y2++
	x1 *= d.pixelsPerWord
	x2 *= d.pixelsPerWord
	if x2 <= x1 || y2 <= y1 {
		return geom.Rect{}
	}
	if x2 > d.fb.Width() {
		x2 = d.fb.Width()
	}
	return geom.Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Reset forces the next Tick to treat every pixel as unchanged, discarding
// any pending debounced rect. Used after a full-screen update has already
// been sent so stale hashes don't regenerate a duplicate report.
func (d *Detector) Reset() {
	d.computeHashes()
	copy(d.rowPrev, d.rowNext)
	copy(d.colPrev, d.colNext)
	d.pending = geom.Rect{}
	d.ticksLeft = d.DebounceInterval
}
