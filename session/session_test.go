package session

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lattice-io/vncd/fb"
	"github.com/lattice-io/vncd/pixfmt"
)

type stubFB struct {
	w, h int
	row  []byte
}

func (s *stubFB) Width() int  { return s.w }
func (s *stubFB) Height() int { return s.h }
func (s *stubFB) NativeFormat() pixfmt.Format {
	return pixfmt.Format{BitsPerPixel: 8, Depth: 8, TrueColor: true, RedMax: 7, GreenMax: 7, BlueMax: 3, RedShift: 5, GreenShift: 2, BlueShift: 0}
}
func (s *stubFB) Row(int) []byte                { return s.row }
func (s *stubFB) ColorTable() []fb.RGB          { return nil }
func (s *stubFB) CursorShape() (fb.Cursor, bool) { return fb.Cursor{}, false }

// TestSession_HandshakeCompletesOverASharedReader exercises the full
// protocol-version/security/ClientInit/ServerInit sequence end to end
// over the single reader Run shares between the handshake and the message
// loop. It sends no post-handshake message, so it does not itself show
// that bytes arriving with the last handshake read reach the message loop.
func TestSession_HandshakeCompletesOverASharedReader(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	cfg := DefaultConfig()
	cfg.TickInterval = time.Hour // keep the retrace ticker from firing mid-test
	fbuf := &stubFB{w: 8, h: 8, row: make([]byte, 8)}
	sess := New(cfg, serverConn, fbuf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	// Drive the client side of the handshake.
	version := make([]byte, 12)
	_, err := io.ReadFull(clientConn, version)
	require.NoError(t, err)
	require.Equal(t, "RFB 003.007\n", string(version))

	_, err = clientConn.Write([]byte(protocolVersion))
	require.NoError(t, err)

	secHdr := make([]byte, 2)
	_, err = io.ReadFull(clientConn, secHdr)
	require.NoError(t, err)
	require.Equal(t, byte(1), secHdr[0])
	require.Equal(t, byte(secTypeNone), secHdr[1])

	_, err = clientConn.Write([]byte{secTypeNone})
	require.NoError(t, err)

	result := make([]byte, 4)
	_, err = io.ReadFull(clientConn, result)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, result)

	_, err = clientConn.Write([]byte{0}) // ClientInit: non-shared
	require.NoError(t, err)

	// ServerInit: width(2) height(2) pixel-format(16) name-len(4) name.
	header := make([]byte, 2+2+16+4)
	_, err = io.ReadFull(clientConn, header)
	require.NoError(t, err)
	width := binary.BigEndian.Uint16(header[0:2])
	height := binary.BigEndian.Uint16(header[2:4])
	require.EqualValues(t, fbuf.w, width)
	require.EqualValues(t, fbuf.h, height)

	nameLen := binary.BigEndian.Uint32(header[20:24])
	name := make([]byte, nameLen)
	_, err = io.ReadFull(clientConn, name)
	require.NoError(t, err)
	require.Equal(t, cfg.SessionName, string(name))

	// Tear down: closing the client conn should unblock the server's
	// message-read goroutine with an error, ending Run.
	clientConn.Close()

	select {
	case err := <-runErr:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session.Run did not return after client disconnect")
	}
}

// TestSession_LegacyClientSkipsSecurityTypeEcho exercises the 3.3 branch of
// spec §4.6's ProtoExchange transition: no length-prefixed type list, no
// chosen-type byte read back from the client, just a bare 4-byte security
// type immediately followed by AuthResult.
func TestSession_LegacyClientSkipsSecurityTypeEcho(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	cfg := DefaultConfig()
	cfg.TickInterval = time.Hour
	fbuf := &stubFB{w: 8, h: 8, row: make([]byte, 8)}
	sess := New(cfg, serverConn, fbuf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	version := make([]byte, 12)
	_, err := io.ReadFull(clientConn, version)
	require.NoError(t, err)

	_, err = clientConn.Write([]byte("RFB 003.003\n"))
	require.NoError(t, err)

	secType := make([]byte, 4)
	_, err = io.ReadFull(clientConn, secType)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, secTypeNone}, secType)

	result := make([]byte, 4)
	_, err = io.ReadFull(clientConn, result)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, result)

	_, err = clientConn.Write([]byte{0}) // ClientInit: non-shared
	require.NoError(t, err)

	header := make([]byte, 2+2+16+4)
	_, err = io.ReadFull(clientConn, header)
	require.NoError(t, err)

	clientConn.Close()
	select {
	case err := <-runErr:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session.Run did not return after client disconnect")
	}
}

// TestSession_SecurityResultFailureWireFormat exercises the AuthResult
// failure path: a VNCAuth mismatch must produce a bare uint32 status
// followed immediately by a uint32 reason length and the raw reason bytes,
// with no message-type byte or padding ahead of it.
func TestSession_SecurityResultFailureWireFormat(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	cfg := DefaultConfig()
	cfg.TickInterval = time.Hour
	cfg.AuthPolicy = AuthPolicyAlways
	cfg.AuthSecret = []byte("secret")
	fbuf := &stubFB{w: 8, h: 8, row: make([]byte, 8)}
	sess := New(cfg, serverConn, fbuf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	version := make([]byte, 12)
	_, err := io.ReadFull(clientConn, version)
	require.NoError(t, err)
	_, err = clientConn.Write([]byte(protocolVersion))
	require.NoError(t, err)

	secHdr := make([]byte, 2)
	_, err = io.ReadFull(clientConn, secHdr)
	require.NoError(t, err)
	require.Equal(t, byte(1), secHdr[0])
	require.Equal(t, byte(secTypeVNCAuth), secHdr[1])

	_, err = clientConn.Write([]byte{secTypeVNCAuth})
	require.NoError(t, err)

	challenge := make([]byte, 16)
	_, err = io.ReadFull(clientConn, challenge)
	require.NoError(t, err)

	wrongResponse := make([]byte, 16) // all zero: never matches a random challenge
	_, err = clientConn.Write(wrongResponse)
	require.NoError(t, err)

	status := make([]byte, 4)
	_, err = io.ReadFull(clientConn, status)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 1}, status)

	reasonLen := make([]byte, 4)
	_, err = io.ReadFull(clientConn, reasonLen)
	require.NoError(t, err)
	n := binary.BigEndian.Uint32(reasonLen)
	require.Equal(t, uint32(len("authentication failed")), n)

	reason := make([]byte, n)
	_, err = io.ReadFull(clientConn, reason)
	require.NoError(t, err)
	require.Equal(t, "authentication failed", string(reason))

	clientConn.Close()
	select {
	case err := <-runErr:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session.Run did not return after client disconnect")
	}
}
