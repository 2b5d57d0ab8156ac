// Package geom holds the small geometric types shared by the framebuffer,
// dirty-region detector, tile codecs, and update scheduler.
package geom

// Rect is a pixel rectangle. Tile encoders expect X and W aligned to a
// 16-pixel boundary; the scheduler is responsible for producing rects that
// satisfy that before they reach an encoder.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the rect covers zero pixels.
func (r Rect) Empty() bool { return r.W == 0 || r.H == 0 }

// Right returns the exclusive right edge (X + W).
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge (Y + H).
func (r Rect) Bottom() int { return r.Y + r.H }

// Area returns the pixel count of the rect.
func (r Rect) Area() int { return r.W * r.H }

// Intersect returns the overlap of r and o. The result is empty (zero
// value) when the two rects do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.Right(), o.Right())
	y2 := min(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Union returns the smallest rect containing both r and o. An empty operand
// is ignored, matching the Mac source's unionRect behavior of treating a
// zero rect as "no contribution".
func (r Rect) Union(o Rect) Rect {
	if o.Empty() {
		return r
	}
	if r.Empty() {
		return o
	}
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.Right(), o.Right())
	y2 := max(r.Bottom(), o.Bottom())
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// ClampTo16 snaps X down to an 8-pixel boundary, rounds W up to a multiple
// of 16, and shifts X leftward if X+W would otherwise exceed maxW. This is
// the normalization the Update Scheduler applies to every incoming
// FramebufferUpdateRequest before it reaches the detector or an encoder.
func (r Rect) ClampTo16(maxW, maxH int) Rect {
	x := r.X &^ 7
	w := (r.W + 15) &^ 15
	if x+w > maxW {
		x = maxW - w
		if x < 0 {
			x = 0
		}
	}
	if x+w > maxW {
		w = maxW - x
	}
	h := r.H
	if r.Y+h > maxH {
		h = maxH - r.Y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X: x, Y: r.Y, W: w, H: h}
}
