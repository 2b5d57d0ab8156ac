// Package deflate wraps compress/zlib into the persistent, streaming
// compressor the ZRLE encoder needs (spec §4.5): one zlib stream per
// Session whose dictionary carries over from rect to rect, matching both
// the RFB ZRLE spec and the teacher's ZRLEEncoding.Unmarshal, which reads
// through a single session-lifetime zlib.Reader rather than a fresh one
// per rectangle.
package deflate

import (
	"bytes"
	"compress/zlib"
	"io"
)

// Stream is a persistent zlib compressor. Compress takes the raw tile
// bytes for one rectangle and returns everything the compressor has
// produced for them (via zlib's Z_SYNC_FLUSH-equivalent, zlib.Writer.Flush)
// without resetting the dictionary, so cross-rectangle backreferences keep working
// exactly as they do across ZRLE-encoded frames in the teacher/other
// examples.
type Stream struct {
	buf *bytes.Buffer
	zw  *zlib.Writer
}

// NewStream builds a Stream at the given zlib compression level (spec
// §4.5's Level knob, 0-9; zlib.DefaultCompression if level < 0).
func NewStream(level int) *Stream {
	if level < zlib.NoCompression {
		level = zlib.DefaultCompression
	}
	buf := &bytes.Buffer{}
	zw, _ := zlib.NewWriterLevel(buf, level)
	return &Stream{buf: buf, zw: zw}
}

// Compress feeds raw and returns the compressed bytes produced for this
// call, leaving the zlib dictionary primed for the next call.
func (s *Stream) Compress(raw []byte) ([]byte, error) {
	if _, err := s.zw.Write(raw); err != nil {
		return nil, err
	}
	if err := s.zw.Flush(); err != nil {
		return nil, err
	}
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	s.buf.Reset()
	return out, nil
}

// Close releases the underlying zlib writer.
func (s *Stream) Close() error { return s.zw.Close() }

// DecodeStream decompresses the concatenation of every Compress call made
// against one Stream (a valid zlib decode unit, since each Flush lands on a
// byte boundary zlib can resume from). It exists for tests that need to
// verify a Stream's output round-trips; production sessions never need to
// decompress their own outbound ZRLE data.
func DecodeStream(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
