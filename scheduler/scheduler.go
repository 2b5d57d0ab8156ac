// Package scheduler implements the Update Scheduler (spec §4.7): the
// five-step algorithm that turns an outstanding FramebufferUpdateRequest
// plus the Dirty-Region Detector's periodic reports into an actual
// FramebufferUpdate on the wire, picking the best encoder the client
// advertised support for.
package scheduler

import (
	"fmt"
	"io"

	"github.com/lattice-io/vncd/encoding"
	"github.com/lattice-io/vncd/fb"
	"github.com/lattice-io/vncd/geom"
	"github.com/lattice-io/vncd/pixfmt"
	"github.com/lattice-io/vncd/rfbmsg"
	"github.com/lattice-io/vncd/tile"
)

// Scheduler holds the encoder set and the per-connection pending-request
// and pending-dirty-rect state the five-step algorithm operates on:
//
//  1. Normalize an incoming FramebufferUpdateRequest's rect to the
//     framebuffer's tile grid and bounds (geom.Rect.ClampTo16).
//  2. Merge it into any already-outstanding request (a non-incremental
//     request always wins; two incremental requests union their rects).
//  3. When the detector reports new dirt, union it into the pending
//     dirty rect regardless of whether a request is outstanding yet.
//  4. On each tick, if both a request is outstanding and the pending
//     dirty rect (or a non-incremental full-screen request) is non-empty,
//     intersect request and dirt and emit an update for that rect,
//     clearing the outstanding request.
//  5. Pick the encoder: a fixed server-side priority (ZRLE > TRLE, for
//     indexed pixel formats only > Hextile > Raw), restricted to what the
//     client declared support for and the server allows — never the
//     client's own stated order. Fails if nothing in that intersection is
//     satisfiable, grounded on original_source/mac-cpp-source/
//     VNCEncoder.cpp's begin(), which walks the same fixed chain and logs
//     "No suitable encoding found!" rather than picking whatever the
//     client asked for first.
type Scheduler struct {
	encoders map[int32]encoding.Encoder
	order    []int32 // client's preference order, most preferred first

	pendingRequest  bool
	incremental     bool
	requestRect     geom.Rect
	pendingDirty    geom.Rect
	palette         []uint32
}

// NewScheduler builds a Scheduler with the given allowed encoders, keyed
// by their wire Type().
func NewScheduler(encoders ...encoding.Encoder) *Scheduler {
	m := make(map[int32]encoding.Encoder, len(encoders))
	for _, e := range encoders {
		m[e.Type()] = e
	}
	return &Scheduler{encoders: m}
}

// SetClientPreference records the client's SetEncodings preference order
// (step 5's input).
func (s *Scheduler) SetClientPreference(order []int32) { s.order = order }

// RequestUpdate folds an incoming FramebufferUpdateRequest into the
// pending request state (step 1-2).
func (s *Scheduler) RequestUpdate(r geom.Rect, incremental bool, fbW, fbH int) {
	r = r.ClampTo16(fbW, fbH)
	if !s.pendingRequest {
		s.pendingRequest, s.incremental, s.requestRect = true, incremental, r
		return
	}
	if !incremental {
		s.incremental = false
	}
	s.requestRect = s.requestRect.Union(r)
}

// NoteDirty folds a Dirty-Region Detector report into the pending dirty
// rect (step 3).
func (s *Scheduler) NoteDirty(r geom.Rect) { s.pendingDirty = s.pendingDirty.Union(r) }

// SetPalette installs the precomputed indexed-to-client-pixel palette
// package tile.BuildClientPalette produced, used when extracting pixels
// for an indexed Framebuffer.
func (s *Scheduler) SetPalette(p []uint32) { s.palette = p }

// Ready reports whether step 4's condition holds: a request is
// outstanding and there is something to send.
func (s *Scheduler) Ready() bool {
	if !s.pendingRequest {
		return false
	}
	if !s.incremental {
		return true
	}
	return !s.pendingDirty.Empty()
}

// Flush performs step 4-5: emits one FramebufferUpdate for the
// intersection of the outstanding request and the pending dirty region
// (or the full request rect, for a non-incremental request), then clears
// both. It is a no-op, returning (false, nil), when Ready is false.
func (s *Scheduler) Flush(w io.Writer, fbuf fb.Framebuffer, client pixfmt.Format) (bool, error) {
	if !s.Ready() {
		return false, nil
	}

	rect := s.requestRect
	if s.incremental {
		rect = rect.Intersect(s.pendingDirty)
	}
	s.pendingRequest = false
	s.pendingDirty = geom.Rect{}

	if rect.Empty() {
		return false, nil
	}

	enc, err := s.pickEncoder(client)
	if err != nil {
		return false, err
	}
	enc.Reset() // each FramebufferUpdate starts from fresh encoder state
	pixels := tile.ExtractRect(fbuf, rect, client, s.palette)

	sw := rfbmsg.NewWriter(w)
	if err := sw.FramebufferUpdateHeader(1); err != nil {
		return false, err
	}
	if err := sw.RectangleHeader(rect.X, rect.Y, rect.W, rect.H, enc.Type()); err != nil {
		return false, err
	}
	if err := enc.EncodeRect(w, pixels, rect, client); err != nil {
		return false, err
	}
	return true, nil
}

// pickEncoder implements step 5's fixed priority: ZRLE first, then TRLE
// (only for indexed, non-true-color pixel formats), then Hextile, then
// Raw — each gated on the client having declared support for it (via
// SetClientPreference) and the server having that encoder registered at
// all. The client's own preference order plays no part in the ranking.
func (s *Scheduler) pickEncoder(client pixfmt.Format) (encoding.Encoder, error) {
	priority := []int32{encoding.TypeZRLE, encoding.TypeTRLE, encoding.TypeHextile, encoding.TypeRaw}
	for _, t := range priority {
		if t == encoding.TypeTRLE && client.TrueColor {
			continue
		}
		if !clientSupports(s.order, t) {
			continue
		}
		if e, ok := s.encoders[t]; ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("scheduler: no satisfiable encoding among client preference %v", s.order)
}

func clientSupports(order []int32, t int32) bool {
	for _, v := range order {
		if v == t {
			return true
		}
	}
	return false
}

// ResetEncoders clears every registered encoder's cross-rectangle state
// (palette reuse, background/foreground memory), used when the client's
// pixel format changes.
func (s *Scheduler) ResetEncoders() {
	for _, e := range s.encoders {
		e.Reset()
	}
}
