package scheduler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-io/vncd/encoding"
	"github.com/lattice-io/vncd/fb"
	"github.com/lattice-io/vncd/geom"
	"github.com/lattice-io/vncd/pixfmt"
)

type stubFB struct {
	w, h int
	row  []byte
}

func (s *stubFB) Width() int  { return s.w }
func (s *stubFB) Height() int { return s.h }
func (s *stubFB) NativeFormat() pixfmt.Format {
	return pixfmt.Format{BitsPerPixel: 8, Depth: 8, TrueColor: false}
}
func (s *stubFB) Row(y int) []byte             { return s.row }
func (s *stubFB) ColorTable() []fb.RGB         { return make([]fb.RGB, 256) }
func (s *stubFB) CursorShape() (fb.Cursor, bool) { return fb.Cursor{}, false }

func TestScheduler_NotReadyUntilRequestAndDirty(t *testing.T) {
	s := NewScheduler(encoding.NewRaw())
	require.False(t, s.Ready())

	s.RequestUpdate(geom.Rect{X: 0, Y: 0, W: 16, H: 16}, true, 64, 64)
	require.False(t, s.Ready(), "incremental request with no dirty region should not be ready")

	s.NoteDirty(geom.Rect{X: 0, Y: 0, W: 16, H: 16})
	require.True(t, s.Ready())
}

func TestScheduler_FlushEmitsOneRectAndClearsState(t *testing.T) {
	s := NewScheduler(encoding.NewRaw())
	s.SetClientPreference([]int32{encoding.TypeRaw})
	s.RequestUpdate(geom.Rect{X: 0, Y: 0, W: 16, H: 16}, false, 32, 32)

	row := make([]byte, 32)
	fbuf := &stubFB{w: 32, h: 32, row: row}
	client := pixfmt.DefaultFormat

	var out bytes.Buffer
	sent, err := s.Flush(&out, fbuf, client)
	require.NoError(t, err)
	require.True(t, sent)
	require.False(t, s.Ready())

	sent, err = s.Flush(&out, fbuf, client)
	require.NoError(t, err)
	require.False(t, sent, "no outstanding request after a flush")
}

// TestScheduler_PicksFixedPriorityRegardlessOfClientOrder confirms step 5
// uses the server's ZRLE > TRLE > Hextile > Raw ranking even when the
// client declared its own preference in a different order.
func TestScheduler_PicksFixedPriorityRegardlessOfClientOrder(t *testing.T) {
	s := NewScheduler(encoding.NewRaw(), encoding.NewHextile(), encoding.NewTRLE(), encoding.NewZRLE(4))
	s.SetClientPreference([]int32{encoding.TypeRaw, encoding.TypeHextile, encoding.TypeTRLE, encoding.TypeZRLE})
	s.RequestUpdate(geom.Rect{X: 0, Y: 0, W: 16, H: 16}, false, 32, 32)

	row := make([]byte, 32)
	fbuf := &stubFB{w: 32, h: 32, row: row}
	client := pixfmt.Format{BitsPerPixel: 8, Depth: 8, TrueColor: false}

	var out bytes.Buffer
	enc, err := s.pickEncoder(client)
	require.NoError(t, err)
	require.Equal(t, encoding.TypeZRLE, enc.Type())

	sent, err := s.Flush(&out, fbuf, client)
	require.NoError(t, err)
	require.True(t, sent)
}

// TestScheduler_TRLEExcludedForTrueColorClients confirms a true-color
// client falls through TRLE (indexed-only) to Hextile even though it
// declared TRLE support.
func TestScheduler_TRLEExcludedForTrueColorClients(t *testing.T) {
	s := NewScheduler(encoding.NewHextile(), encoding.NewTRLE())
	s.SetClientPreference([]int32{encoding.TypeTRLE, encoding.TypeHextile})

	enc, err := s.pickEncoder(pixfmt.DefaultFormat) // TrueColor: true
	require.NoError(t, err)
	require.Equal(t, encoding.TypeHextile, enc.Type())
}

// TestScheduler_FlushFailsWhenNoEncodingIsSatisfiable confirms the
// scheduler surfaces a failure rather than silently defaulting to Raw
// when the client/server intersection names no usable encoder.
func TestScheduler_FlushFailsWhenNoEncodingIsSatisfiable(t *testing.T) {
	s := NewScheduler(encoding.NewZRLE(4))
	s.SetClientPreference([]int32{encoding.TypeRaw}) // client never declared ZRLE
	s.RequestUpdate(geom.Rect{X: 0, Y: 0, W: 16, H: 16}, false, 32, 32)

	row := make([]byte, 32)
	fbuf := &stubFB{w: 32, h: 32, row: row}

	var out bytes.Buffer
	sent, err := s.Flush(&out, fbuf, pixfmt.DefaultFormat)
	require.Error(t, err)
	require.False(t, sent)
}
