// Package session implements the handshake/message state machine (spec
// §4.6): protocol version negotiation, security/authentication, pixel
// format and encoding negotiation, and the per-connection message loop
// that feeds the Update Scheduler and keyboard/pointer input translation.
package session

import "time"

// AuthPolicy decides whether a connecting client must authenticate. This
// generalizes the ConnectionClosing-during-handshake force-auth heuristic
// spec §9 raises as an Open Question into a pluggable policy rather than a
// hardcoded rule, per the spec's own suggestion.
type AuthPolicy int

const (
	// AuthPolicyNever never challenges a client (RFB "None" security).
	AuthPolicyNever AuthPolicy = iota
	// AuthPolicyAlways always challenges with VNCAuth.
	AuthPolicyAlways
	// AuthPolicyForceOnReconnect challenges with VNCAuth exactly as
	// AuthPolicyAlways does. Session keeps no history of earlier
	// disconnects; choosing this policy for a connection that follows an
	// abnormal disconnect from the same remote address is up to the caller.
	AuthPolicyForceOnReconnect
)

// Config is the persisted per-server configuration, field-for-field
// grounded on original_source/mac-cpp-source/VNCConfig.h's VNCConfig
// struct (allowStreaming/allowIncremental/.../forceVNCAuth bitfields,
// zLibLevel, sessionName, tcpPort), generalized from C bitfields to plain
// Go bools and widened fields.
type Config struct {
	AllowStreaming   bool
	AllowIncremental bool
	AllowControl     bool
	HideCursor       bool
	AllowRaw         bool
	AllowHextile     bool
	AllowTRLE        bool
	AllowZRLE        bool
	AutoRestart      bool

	AuthPolicy AuthPolicy
	AuthSecret []byte // VNCAuth password; never persisted by this package

	ZLibLevel   int
	SessionName string
	TCPPort     int

	// ReconnectWindow is the lookback a caller applying
	// AuthPolicyForceOnReconnect may use; Session itself never reads it.
	ReconnectWindow time.Duration

	// TickInterval is the Update Scheduler / dirty detector retrace
	// cadence (spec §4.7), default 60Hz if zero.
	TickInterval time.Duration
}

// DefaultConfig matches VNC_COMPRESSION_LEVEL 4 in VNCConfig.h: every
// encoder allowed, no forced authentication.
func DefaultConfig() Config {
	return Config{
		AllowStreaming:   true,
		AllowIncremental: true,
		AllowControl:     true,
		AllowRaw:         true,
		AllowHextile:     true,
		AllowTRLE:        true,
		AllowZRLE:        true,
		AuthPolicy:       AuthPolicyNever,
		ZLibLevel:        4,
		SessionName:      "vncd",
		TCPPort:          5900,
		ReconnectWindow:  5 * time.Second,
		TickInterval:     time.Second / 60,
	}
}
