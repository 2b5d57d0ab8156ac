package rfbmsg

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// chunkedReader releases buf in fixed-size pieces no matter how much the
// caller asks for, simulating a TCP stream that splits one logical
// message across several reads.
type chunkedReader struct {
	buf       []byte
	chunkSize int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.buf) == 0 {
		return 0, io.EOF
	}
	n := c.chunkSize
	if n > len(p) {
		n = len(p)
	}
	if n > len(c.buf) {
		n = len(c.buf)
	}
	copy(p, c.buf[:n])
	c.buf = c.buf[n:]
	return n, nil
}

func TestReadClientMessage_FragmentedPointerEvent(t *testing.T) {
	msg := []byte{CSPointerEvent, 0x05, 0x01, 0x23, 0x04, 0x56}
	src := &chunkedReader{buf: msg, chunkSize: 2} // delivered across 3 reads

	r := NewReader(src)
	m, err := ReadClientMessage(r)
	require.NoError(t, err)

	pe, ok := m.(PointerEventMsg)
	require.True(t, ok)
	require.Equal(t, uint8(0x05), pe.ButtonMask)
	require.Equal(t, uint16(0x0123), pe.X)
	require.Equal(t, uint16(0x0456), pe.Y)
}

func TestReadClientMessage_SetEncodings(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(CSSetEncodings)
	buf.WriteByte(0) // padding
	buf.Write([]byte{0x00, 0x02})
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00}) // Raw
	buf.Write([]byte{0x00, 0x00, 0x00, 0x05}) // Hextile

	r := NewReader(&buf)
	m, err := ReadClientMessage(r)
	require.NoError(t, err)

	se, ok := m.(SetEncodingsMsg)
	require.True(t, ok)
	require.Equal(t, []int32{0, 5}, se.Encodings)
}
