// Command vncd is a minimal RFB/VNC server: it shares a simulated
// framebuffer (package fbsim) over the network using the handshake,
// dirty-region detection, and tile-encoder machinery in this module.
package main

import (
	"context"
	"image/color"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang/glog"
	flag "github.com/spf13/pflag"

	"github.com/lattice-io/vncd/internal/fbsim"
	"github.com/lattice-io/vncd/session"
)

var (
	port          = flag.Int("port", 5900, "TCP port to listen on")
	sessionName   = flag.String("name", "vncd", "desktop name advertised to clients")
	width         = flag.Int("width", 1024, "simulated framebuffer width")
	height        = flag.Int("height", 768, "simulated framebuffer height")
	zlibLevel     = flag.Int("zlib-level", 4, "zlib compression level used by the ZRLE encoder (0-9)")
	forceAuth     = flag.Bool("force-auth", false, "require VNCAuth on every connection")
	hideCursor    = flag.Bool("hide-cursor", false, "never send the cursor pseudo-encoding")
	autoRestart   = flag.Bool("auto-restart", true, "keep accepting after a failed Accept; a session ending in error never stops the listener")
	disableRaw    = flag.Bool("disable-raw", false, "do not offer the Raw encoding")
	disableHex    = flag.Bool("disable-hextile", false, "do not offer the Hextile encoding")
	disableTRLE   = flag.Bool("disable-trle", false, "do not offer the TRLE encoding")
	disableZRLE   = flag.Bool("disable-zrle", false, "do not offer the ZRLE encoding")
	tickHz        = flag.Int("tick-hz", 60, "dirty-detector/update-scheduler retrace rate")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg := session.DefaultConfig()
	cfg.SessionName = *sessionName
	cfg.TCPPort = *port
	cfg.ZLibLevel = *zlibLevel
	cfg.HideCursor = *hideCursor
	cfg.AutoRestart = *autoRestart
	cfg.AllowRaw = !*disableRaw
	cfg.AllowHextile = !*disableHex
	cfg.AllowTRLE = !*disableTRLE
	cfg.AllowZRLE = !*disableZRLE
	cfg.TickInterval = time.Second / time.Duration(max(*tickHz, 1))
	if *forceAuth {
		cfg.AuthPolicy = session.AuthPolicyAlways
		cfg.AuthSecret = loadAuthSecret()
	}

	fbuf := fbsim.NewDisplay(*width, *height)
	fbuf.FillRect(0, 0, *width, *height, color.RGBA{R: 0x20, G: 0x40, B: 0x80, A: 0xff})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cfg.TCPPort)))
	if err != nil {
		glog.Fatalf("vncd: listen on port %d: %v", cfg.TCPPort, err)
	}
	glog.Infof("vncd: listening on %s (name=%q %dx%d)", ln.Addr(), cfg.SessionName, *width, *height)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	acceptLoop(ctx, ln, cfg, fbuf)
}

func acceptLoop(ctx context.Context, ln net.Listener, cfg session.Config, fbuf *fbsim.Display) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			glog.Errorf("vncd: accept: %v", err)
			if !cfg.AutoRestart {
				return
			}
			continue
		}
		go serve(ctx, conn, cfg, fbuf)
	}
}

func serve(ctx context.Context, conn net.Conn, cfg session.Config, fbuf *fbsim.Display) {
	defer conn.Close()
	remote := conn.RemoteAddr()
	glog.Infof("vncd: session opened from %s", remote)

	sess := session.New(cfg, conn, fbuf)
	if err := sess.Run(ctx); err != nil {
		glog.Warningf("vncd: session from %s ended: %v", remote, err)
		return
	}
	glog.Infof("vncd: session from %s closed cleanly", remote)
}

// loadAuthSecret reads the VNCAuth password from the VNCD_PASSWORD
// environment variable; a future revision should source this from the
// same persisted-config store session.Config otherwise mirrors.
func loadAuthSecret() []byte {
	if v := os.Getenv("VNCD_PASSWORD"); v != "" {
		return []byte(v)
	}
	glog.Warning("vncd: -force-auth set but VNCD_PASSWORD is empty; clients will fail VNCAuth")
	return nil
}
