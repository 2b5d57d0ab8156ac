package session

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/golang/glog"

	"github.com/lattice-io/vncd/dirty"
	"github.com/lattice-io/vncd/encoding"
	"github.com/lattice-io/vncd/fb"
	"github.com/lattice-io/vncd/geom"
	"github.com/lattice-io/vncd/input"
	"github.com/lattice-io/vncd/internal/metrics"
	"github.com/lattice-io/vncd/pixfmt"
	"github.com/lattice-io/vncd/rfberr"
	"github.com/lattice-io/vncd/rfbmsg"
	"github.com/lattice-io/vncd/scheduler"
	"github.com/lattice-io/vncd/tile"
)

// State names the session's position in the handshake/message state
// machine (spec §4.6).
type State int

const (
	StateProtocolVersion State = iota
	StateSecurity
	StateAuthChallenge
	StateSecurityResult
	StateClientInit
	StateNormal
	StateClosing
	StateError
)

func (s State) String() string {
	switch s {
	case StateProtocolVersion:
		return "protocol-version"
	case StateSecurity:
		return "security"
	case StateAuthChallenge:
		return "auth-challenge"
	case StateSecurityResult:
		return "security-result"
	case StateClientInit:
		return "client-init"
	case StateNormal:
		return "normal"
	case StateClosing:
		return "closing"
	default:
		return "error"
	}
}

const protocolVersion = "RFB 003.007\n"

const (
	secTypeInvalid = 0
	secTypeNone    = 1
	secTypeVNCAuth = 2
)

// Session owns one client connection end-to-end: handshake, the message
// dispatch loop, and the goroutine driving the dirty-region detector and
// update scheduler. One goroutine per Session replaces the
// suspension-point/continuation model spec §9 describes for a
// single-threaded host, per SPEC_FULL.md's Go-realization notes.
type Session struct {
	cfg   Config
	fbuf  fb.Framebuffer
	conn  net.Conn
	log   *log_
	state State

	client    pixfmt.Format
	scheduler *scheduler.Scheduler
	detector  *dirty.Detector
	cursorEnc *encoding.Cursor
	keyboard  input.KeyboardState
	pointer   input.PointerState

	metrics *metrics.Set
}

// log_ routes session-scoped diagnostics to fn when fn is set, and to
// glog at verbosity 2 otherwise. New leaves fn unset and Session has no
// setter for it, so session diagnostics always go to glog.
type log_ struct{ fn func(format string, args ...any) }

func (l *log_) Printf(format string, args ...any) {
	if l != nil && l.fn != nil {
		l.fn(format, args...)
		return
	}
	glog.V(2).Infof(format, args...)
}

// New builds a Session bound to conn and fbuf, ready for Run.
func New(cfg Config, conn net.Conn, fbuf fb.Framebuffer) *Session {
	s := &Session{
		cfg:  cfg,
		fbuf: fbuf,
		conn: conn,
		scheduler: scheduler.NewScheduler(
			encoding.NewRaw(),
			encoding.NewHextile(),
			encoding.NewTRLE(),
			encoding.NewZRLE(cfg.ZLibLevel),
		),
		cursorEnc: encoding.NewCursor(),
		metrics:   metrics.NewSet("bytes_sent", "bytes_received", "frames_sent"),
		detector:  dirty.NewDetector(fbuf, 0),
	}
	return s
}

// Metrics exposes this session's byte/frame counters.
func (s *Session) Metrics() map[string]int64 { return s.metrics.Snapshot() }

// PointerState exposes the session's current pointer shadow.
func (s *Session) PointerState() input.PointerState { return s.pointer }

// Modifiers exposes the session's current keyboard modifier shadow.
func (s *Session) Modifiers() input.Modifier { return s.keyboard.Modifiers() }

// Run drives the session to completion: handshake, then the message loop
// until ctx is cancelled or the connection fails. A rfberr.Error with
// ConnectionClosed set is returned, not treated as fatal, when the client
// simply disconnects.
func (s *Session) Run(ctx context.Context) error {
	reader := rfbmsg.NewReader(s.conn)
	if err := s.handshake(reader); err != nil {
		s.state = StateError
		return err
	}
	s.state = StateNormal

	tick := s.cfg.TickInterval
	if tick <= 0 {
		tick = time.Second / 60
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	msgCh := make(chan rfbmsg.ClientMessage, 8)
	errCh := make(chan error, 1)
	go func() {
		for {
			m, err := rfbmsg.ReadClientMessage(reader)
			if err != nil {
				errCh <- err
				return
			}
			msgCh <- m
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.state = StateClosing
			return ctx.Err()

		case err := <-errCh:
			s.state = StateClosing
			if err == io.EOF {
				return rfberr.Closed("session.recv")
			}
			return rfberr.Transport("session.recv", err)

		case m := <-msgCh:
			if err := s.handleMessage(m); err != nil {
				s.state = StateError
				return err
			}

		case <-ticker.C:
			if r, ok := s.detector.Tick(); ok {
				s.scheduler.NoteDirty(r)
			}
			if err := s.flushUpdate(); err != nil {
				s.state = StateError
				return err
			}
		}
	}
}

func (s *Session) handleMessage(m rfbmsg.ClientMessage) error {
	switch msg := m.(type) {
	case rfbmsg.SetPixelFormatMsg:
		if err := msg.Format.Valid(s.fbuf.NativeFormat().Depth); err != nil {
			return rfberr.Protocol("session.SetPixelFormat", err)
		}
		s.client = msg.Format
		s.scheduler.SetPalette(tile.BuildClientPalette(s.client, s.fbuf.ColorTable()))
		s.scheduler.ResetEncoders()
		if table := s.fbuf.ColorTable(); !s.client.TrueColor && table != nil {
			if err := rfbmsg.NewWriter(s.conn).SetColourMapEntries(0, table); err != nil {
				return rfberr.Transport("session.SetColourMapEntries", err)
			}
		}

	case rfbmsg.SetEncodingsMsg:
		s.scheduler.SetClientPreference(s.filterAllowedEncodings(msg.Encodings))

	case rfbmsg.FramebufferUpdateRequestMsg:
		r := geom.Rect{X: int(msg.X), Y: int(msg.Y), W: int(msg.W), H: int(msg.H)}
		s.scheduler.RequestUpdate(r, msg.Incremental, s.fbuf.Width(), s.fbuf.Height())

	case rfbmsg.KeyEventMsg:
		if mod, isMod := s.keyboard.Apply(msg.Key, msg.Down); isMod {
			s.log.Printf("modifier %d now %v", mod, s.keyboard.Modifiers())
		}
		// Forwarding the translated keysym/modifier state to a host input
		// injector is out of scope (spec §1 Non-goals); Session only
		// maintains the shadow state a caller would act on.

	case rfbmsg.PointerEventMsg:
		s.pointer.Apply(int(msg.X), int(msg.Y), msg.ButtonMask)

	case rfbmsg.ClientCutTextMsg:
		// Clipboard injection into a host OS is out of scope (spec §1
		// Non-goals); Session only needs to keep the message loop moving.

	default:
		return rfberr.Protocol("session.dispatch", fmt.Errorf("unhandled message %T", m))
	}
	return nil
}

// filterAllowedEncodings intersects the client's preference order with
// what cfg allows, preserving the client's order (step 5 of spec §4.7
// needs the intersection, not just cfg's list).
func (s *Session) filterAllowedEncodings(order []int32) []int32 {
	out := make([]int32, 0, len(order))
	for _, e := range order {
		switch e {
		case encoding.TypeRaw:
			if s.cfg.AllowRaw {
				out = append(out, e)
			}
		case encoding.TypeHextile:
			if s.cfg.AllowHextile {
				out = append(out, e)
			}
		case encoding.TypeTRLE:
			if s.cfg.AllowTRLE {
				out = append(out, e)
			}
		case encoding.TypeZRLE:
			if s.cfg.AllowZRLE {
				out = append(out, e)
			}
		case encoding.TypeCursor, encoding.TypeDesktopSize, encoding.TypeExtendedDesktopSize, encoding.TypeContinuousUpdates:
			out = append(out, e) // pseudo-encodings are always acknowledged
		}
	}
	return out
}

func (s *Session) flushUpdate() error {
	if cur, ok := s.fbuf.CursorShape(); ok && s.cfg.AllowControl && !s.cfg.HideCursor {
		if s.cursorEnc.Changed(cur) {
			w := rfbmsg.NewWriter(s.conn)
			if err := w.FramebufferUpdateHeader(1); err != nil {
				return rfberr.Transport("session.cursor", err)
			}
			if err := w.RectangleHeader(cur.HotX, cur.HotY, cur.Width, cur.Height, encoding.TypeCursor); err != nil {
				return rfberr.Transport("session.cursor", err)
			}
			if err := s.cursorEnc.EncodeShape(s.conn, cur, s.client); err != nil {
				return rfberr.Transport("session.cursor", err)
			}
			s.metrics.Adjust("frames_sent", 1)
		}
	}

	sent, err := s.scheduler.Flush(s.conn, s.fbuf, s.client)
	if err != nil {
		return rfberr.Transport("session.flush", err)
	}
	if sent {
		s.metrics.Adjust("frames_sent", 1)
	}
	return nil
}

func (s *Session) handshake(r *rfbmsg.Reader) error {
	s.state = StateProtocolVersion
	if _, err := io.WriteString(s.conn, protocolVersion); err != nil {
		return rfberr.Transport("session.handshake.version", err)
	}
	clientVersion, err := r.ReadFull(12)
	if err != nil {
		return rfberr.Transport("session.handshake.version", err)
	}
	s.log.Printf("client protocol version %q", clientVersion)

	// "RFB 003.0MM\n": the minor-version digit at offset 10 tells a '7' or
	// '8' client apart from a 3.3 one, which negotiates security
	// differently (spec §4.6's ProtoExchange transition).
	legacy := len(clientVersion) < 11 || (clientVersion[10] != '7' && clientVersion[10] != '8')

	s.state = StateSecurity
	secType, err := s.negotiateSecurity(r, legacy)
	if err != nil {
		return err
	}

	if secType == secTypeVNCAuth {
		s.state = StateAuthChallenge
		if err := s.runAuthChallenge(r); err != nil {
			return err
		}
	}

	s.state = StateSecurityResult
	if err := s.sendSecurityResult(true, ""); err != nil {
		return err
	}

	s.state = StateClientInit
	return s.exchangeInit(r)
}

// negotiateSecurity implements spec §4.6's ProtoExchange/AuthSelect
// transitions. A 3.7/3.8 client (legacy == false) gets the length-prefixed
// security-type list and echoes back its chosen type (AuthSelect); a 3.3
// client (legacy == true) has no say in the matter — the server picks
// unilaterally and sends a single bare uint32, with no byte read back.
func (s *Session) negotiateSecurity(r *rfbmsg.Reader, legacy bool) (byte, error) {
	secType := byte(secTypeNone)
	if s.cfg.AuthPolicy != AuthPolicyNever {
		secType = secTypeVNCAuth
	}

	if legacy {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(secType))
		if _, err := s.conn.Write(b[:]); err != nil {
			return 0, rfberr.Transport("session.handshake.security", err)
		}
		return secType, nil
	}

	types := []byte{secType}
	hdr := append([]byte{byte(len(types))}, types...)
	if _, err := s.conn.Write(hdr); err != nil {
		return 0, rfberr.Transport("session.handshake.security", err)
	}
	chosen, err := r.ReadByte()
	if err != nil {
		return 0, rfberr.Transport("session.handshake.security", err)
	}
	for _, t := range types {
		if t == chosen {
			return chosen, nil
		}
	}
	return 0, rfberr.Protocol("session.handshake.security", fmt.Errorf("client chose unoffered security type %d", chosen))
}

func (s *Session) runAuthChallenge(r *rfbmsg.Reader) error {
	challenge, err := NewChallenge()
	if err != nil {
		return rfberr.Internal("session.handshake.challenge", err)
	}
	if _, err := s.conn.Write(challenge[:]); err != nil {
		return rfberr.Transport("session.handshake.challenge", err)
	}
	resp, err := r.ReadFull(16)
	if err != nil {
		return rfberr.Transport("session.handshake.challenge", err)
	}
	if err := Verify(challenge, resp, s.cfg.AuthSecret); err != nil {
		_ = s.sendSecurityResult(false, "authentication failed")
		return err
	}
	return nil
}

func (s *Session) sendSecurityResult(ok bool, reason string) error {
	w := rfbmsg.NewWriter(s.conn)
	if err := w.SecurityResult(ok, reason); err != nil {
		return rfberr.Transport("session.handshake.result", err)
	}
	if !ok {
		return rfberr.Protocol("session.handshake.result", fmt.Errorf("security failed: %s", reason))
	}
	return nil
}

func (s *Session) exchangeInit(r *rfbmsg.Reader) error {
	shared, err := r.ReadByte() // ClientInit's shared-flag byte
	if err != nil {
		return rfberr.Transport("session.handshake.clientinit", err)
	}
	s.log.Printf("client requested shared=%v", shared != 0)

	s.client = pixfmt.DefaultFormat
	s.scheduler.SetPalette(tile.BuildClientPalette(s.client, s.fbuf.ColorTable()))

	w := rfbmsg.NewWriter(s.conn)
	if err := w.ServerInit(s.fbuf.Width(), s.fbuf.Height(), s.client, s.cfg.SessionName); err != nil {
		return rfberr.Transport("session.handshake.serverinit", err)
	}
	return nil
}
