package encoding

import (
	"io"

	"github.com/lattice-io/vncd/geom"
	"github.com/lattice-io/vncd/pixfmt"
)

// Raw is the lowest-priority encoder (spec §4.4.1): every pixel of the
// rect, row-major, PIXEL-width, client byte order. Grounded on the
// teacher's RawEncoding.Read, inverted from decode to encode.
type Raw struct{}

func NewRaw() *Raw { return &Raw{} }

func (*Raw) Type() int32 { return TypeRaw }
func (*Raw) Reset()      {}

func (*Raw) EncodeRect(w io.Writer, pixels []uint32, rect geom.Rect, client pixfmt.Format) error {
	bpp := client.BytesPerPixel()
	buf := make([]byte, rect.W*rect.H*bpp)
	for i, p := range pixels {
		client.EmitPixel(buf[i*bpp:(i+1)*bpp], p)
	}
	_, err := w.Write(buf)
	return err
}
