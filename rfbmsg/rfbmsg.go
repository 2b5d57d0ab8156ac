// Package rfbmsg implements the wire message codec (spec §4.6): client-
// to-server message parsing over a buffered, fragment-tolerant reader, and
// server-to-client message serialization. Message numbering and framing
// follow RFB §7; the buffered-read style is grounded on the teacher's
// ClientConn, which wraps its net.Conn in a *bufio.Reader for exactly the
// same reason — a single TCP read rarely lines up with a message boundary.
package rfbmsg

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/lattice-io/vncd/pixfmt"
)

// Client-to-server message type bytes (RFB §7.5).
const (
	CSSetPixelFormat           = 0
	CSSetEncodings             = 2
	CSFramebufferUpdateRequest = 3
	CSKeyEvent                 = 4
	CSPointerEvent             = 5
	CSClientCutText            = 6
)

// Server-to-client message type bytes (RFB §7.6).
const (
	SCFramebufferUpdate  = 0
	SCSetColourMapEntries = 1
	SCBell               = 2
	SCServerCutText      = 3
)

// Reader wraps a net.Conn (or any io.Reader) in buffered, fragment-
// tolerant reads: every ReadX method blocks until its full payload has
// arrived, no matter how many TCP segments it took to get there, matching
// spec §4.6's fragmented-read requirement.
type Reader struct {
	br *bufio.Reader
}

func NewReader(r io.Reader) *Reader { return &Reader{br: bufio.NewReaderSize(r, 4096)} }

func (r *Reader) ReadByte() (byte, error) { return r.br.ReadByte() }

func (r *Reader) ReadUint16() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r.br, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.br, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(r.br, buf)
	return buf, err
}

func (r *Reader) Discard(n int) error {
	_, err := r.br.Discard(n)
	return err
}

// ClientMessage is any decoded client-to-server message.
type ClientMessage interface{ clientMessage() }

// SetPixelFormatMsg is RFB §7.5.1.
type SetPixelFormatMsg struct {
	Format pixfmt.Format
}

func (SetPixelFormatMsg) clientMessage() {}

// SetEncodingsMsg is RFB §7.5.2: the client's ordered encoding preference
// list, most preferred first.
type SetEncodingsMsg struct {
	Encodings []int32
}

func (SetEncodingsMsg) clientMessage() {}

// FramebufferUpdateRequestMsg is RFB §7.5.3.
type FramebufferUpdateRequestMsg struct {
	Incremental   bool
	X, Y, W, H    uint16
}

func (FramebufferUpdateRequestMsg) clientMessage() {}

// KeyEventMsg is RFB §7.5.4.
type KeyEventMsg struct {
	Down  bool
	Key   uint32
}

func (KeyEventMsg) clientMessage() {}

// PointerEventMsg is RFB §7.5.5.
type PointerEventMsg struct {
	ButtonMask uint8
	X, Y       uint16
}

func (PointerEventMsg) clientMessage() {}

// ClientCutTextMsg is RFB §7.5.6.
type ClientCutTextMsg struct {
	Text string
}

func (ClientCutTextMsg) clientMessage() {}

// ReadClientMessage reads and decodes exactly one client-to-server
// message, including its leading type byte.
func ReadClientMessage(r *Reader) (ClientMessage, error) {
	typ, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch typ {
	case CSSetPixelFormat:
		if err := r.Discard(3); err != nil { // padding
			return nil, err
		}
		var pf pixfmt.Format
		if err := pf.ReadFrom(readerAdapter{r}); err != nil {
			return nil, err
		}
		return SetPixelFormatMsg{Format: pf}, nil

	case CSSetEncodings:
		if err := r.Discard(1); err != nil {
			return nil, err
		}
		n, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		encs := make([]int32, n)
		for i := range encs {
			v, err := r.ReadInt32()
			if err != nil {
				return nil, err
			}
			encs[i] = v
		}
		return SetEncodingsMsg{Encodings: encs}, nil

	case CSFramebufferUpdateRequest:
		inc, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		x, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		y, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		w, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		h, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		return FramebufferUpdateRequestMsg{Incremental: inc != 0, X: x, Y: y, W: w, H: h}, nil

	case CSKeyEvent:
		down, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if err := r.Discard(2); err != nil {
			return nil, err
		}
		key, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return KeyEventMsg{Down: down != 0, Key: key}, nil

	case CSPointerEvent:
		mask, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		x, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		y, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		return PointerEventMsg{ButtonMask: mask, X: x, Y: y}, nil

	case CSClientCutText:
		if err := r.Discard(3); err != nil {
			return nil, err
		}
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		text, err := r.ReadFull(int(n))
		if err != nil {
			return nil, err
		}
		return ClientCutTextMsg{Text: string(text)}, nil

	default:
		return nil, &UnknownMessageError{Type: typ}
	}
}

// UnknownMessageError is returned for a client-to-server message type byte
// this server doesn't implement.
type UnknownMessageError struct{ Type byte }

func (e *UnknownMessageError) Error() string { return "rfbmsg: unknown client message type" }

// readerAdapter lets pixfmt.Format.ReadFrom, which wants a plain
// io.Reader, pull bytes through a *Reader's buffered source.
type readerAdapter struct{ r *Reader }

func (a readerAdapter) Read(p []byte) (int, error) {
	b, err := a.r.ReadFull(len(p))
	copy(p, b)
	return len(b), err
}
