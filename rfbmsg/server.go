package rfbmsg

import (
	"encoding/binary"
	"io"

	"github.com/lattice-io/vncd/fb"
	"github.com/lattice-io/vncd/pixfmt"
)

// Writer serializes server-to-client messages directly to an io.Writer.
// Unlike Reader, it does no buffering: most messages reach the wire as
// several small writes, one or more per field.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (w *Writer) writeUint16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.w.Write(b[:])
	return err
}

func (w *Writer) writeUint32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.w.Write(b[:])
	return err
}

func (w *Writer) writeInt32(v int32) error { return w.writeUint32(uint32(v)) }

// ServerInit writes the ServerInit message (RFB §7.3.2): framebuffer
// dimensions, pixel format, and the session name string.
func (w *Writer) ServerInit(width, height int, format pixfmt.Format, name string) error {
	if err := w.writeUint16(uint16(width)); err != nil {
		return err
	}
	if err := w.writeUint16(uint16(height)); err != nil {
		return err
	}
	if err := format.WriteTo(w.w); err != nil {
		return err
	}
	if err := w.writeUint32(uint32(len(name))); err != nil {
		return err
	}
	_, err := w.w.Write([]byte(name))
	return err
}

// FramebufferUpdateHeader writes the SCFramebufferUpdate message header
// and the count of rectangles that will follow (RFB §7.6.1). Callers write
// each rectangle's RECTANGLE_HEADER + body themselves via RectangleHeader.
func (w *Writer) FramebufferUpdateHeader(numRects int) error {
	if _, err := w.w.Write([]byte{SCFramebufferUpdate, 0}); err != nil {
		return err
	}
	return w.writeUint16(uint16(numRects))
}

// RectangleHeader writes one RECTANGLE_HEADER: x, y, w, h, encoding-type.
func (w *Writer) RectangleHeader(x, y, width, height int, encodingType int32) error {
	if err := w.writeUint16(uint16(x)); err != nil {
		return err
	}
	if err := w.writeUint16(uint16(y)); err != nil {
		return err
	}
	if err := w.writeUint16(uint16(width)); err != nil {
		return err
	}
	if err := w.writeUint16(uint16(height)); err != nil {
		return err
	}
	return w.writeInt32(encodingType)
}

// SetColourMapEntries writes RFB §7.6.2: a run of palette entries starting
// at firstColor, each channel widened to 16 bits as the wire format
// requires.
func (w *Writer) SetColourMapEntries(firstColor int, entries []fb.RGB) error {
	if _, err := w.w.Write([]byte{SCSetColourMapEntries, 0}); err != nil {
		return err
	}
	if err := w.writeUint16(uint16(firstColor)); err != nil {
		return err
	}
	if err := w.writeUint16(uint16(len(entries))); err != nil {
		return err
	}
	for _, c := range entries {
		if err := w.writeUint16(uint16(c.R)<<8 | uint16(c.R)); err != nil {
			return err
		}
		if err := w.writeUint16(uint16(c.G)<<8 | uint16(c.G)); err != nil {
			return err
		}
		if err := w.writeUint16(uint16(c.B)<<8 | uint16(c.B)); err != nil {
			return err
		}
	}
	return nil
}

// Bell writes RFB §7.6.3.
func (w *Writer) Bell() error {
	_, err := w.w.Write([]byte{SCBell})
	return err
}

// SecurityResult writes the handshake SecurityResult word (RFB §7.1.3): a
// uint32 status (OK=0, failed=1) followed, on failure, by a uint32
// reason length and the raw reason bytes. Unlike ServerCutText, this field
// has no message-type byte or padding — it is sent before any message
// framing exists.
func (w *Writer) SecurityResult(ok bool, reason string) error {
	status := uint32(0)
	if !ok {
		status = 1
	}
	if err := w.writeUint32(status); err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := w.writeUint32(uint32(len(reason))); err != nil {
		return err
	}
	_, err := w.w.Write([]byte(reason))
	return err
}

// ServerCutText writes RFB §7.6.4.
func (w *Writer) ServerCutText(text string) error {
	if _, err := w.w.Write([]byte{SCServerCutText, 0, 0, 0}); err != nil {
		return err
	}
	if err := w.writeUint32(uint32(len(text))); err != nil {
		return err
	}
	_, err := w.w.Write([]byte(text))
	return err
}
