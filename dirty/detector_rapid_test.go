package dirty

import (
	"testing"

	"pgregory.net/rapid"
)

// TestDetector_ChangedPixelAlwaysWithinReportedRect is spec §8's property:
// for all rects the detector reports, every changed pixel since the
// previous report lies within that rect. It drives the detector with a
// single random pixel mutation per run and checks the eventual report (if
// any arrives within the debounce window) bounds that pixel.
func TestDetector_ChangedPixelAlwaysWithinReportedRect(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(8, 64).Draw(rt, "w")
		h := rapid.IntRange(8, 64).Draw(rt, "h")
		interval := rapid.IntRange(1, 8).Draw(rt, "interval")

		fbuf := newMemFB(w, h)
		d := NewDetector(fbuf, interval)

		for i := 0; i < interval; i++ {
			d.Tick()
		}

		px := rapid.IntRange(0, w-1).Draw(rt, "px")
		py := rapid.IntRange(0, h-1).Draw(rt, "py")
		fbuf.rows[py][px] ^= 0xFF

		for i := 0; i < 2*interval+1; i++ {
			r, ok := d.Tick()
			if !ok {
				continue
			}
			if px < r.X || px >= r.X+r.W || py < r.Y || py >= r.Y+r.H {
				rt.Fatalf("changed pixel (%d,%d) outside reported rect %+v", px, py, r)
			}
			return
		}
	})
}
