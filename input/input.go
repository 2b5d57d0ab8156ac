// Package input translates KeyEvent/PointerEvent messages (spec §4.8) into
// the shadow keyboard-modifier and pointer-button state a caller needs to
// drive host input injection. Host key/button injection itself is out of
// scope (spec §1 Non-goals); this package only maintains the translated
// state a caller would inject.
package input

// Keysym values below are the small, commonly-needed subset of the X11
// keysym space RFB KeyEvent messages carry: ASCII passes through
// unchanged (X11 keysyms 0x20-0x7E mirror Latin-1/ASCII code points), and
// a handful of named keys cover the control/modifier keys a real desktop
// needs. bradfitz-rfbgo's KeyEvent/handleKeyEvent establishes that a VNC
// server only needs to decode the raw uint32 keysym and flag, not
// reimplement a full X11 keysym table.
const (
	KeyBackSpace = 0xFF08
	KeyTab       = 0xFF09
	KeyReturn    = 0xFF0D
	KeyEscape    = 0xFF1B
	KeyDelete    = 0xFFFF

	KeyShiftL   = 0xFFE1
	KeyShiftR   = 0xFFE2
	KeyControlL = 0xFFE3
	KeyControlR = 0xFFE4
	KeyAltL     = 0xFFE9
	KeyAltR     = 0xFFEA
	KeyMetaL    = 0xFFE7
	KeyMetaR    = 0xFFE8
)

// Modifier is one bit of the modifier shadow.
type Modifier int

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
	ModMeta
)

var modifierKeys = map[uint32]Modifier{
	KeyShiftL:   ModShift,
	KeyShiftR:   ModShift,
	KeyControlL: ModControl,
	KeyControlR: ModControl,
	KeyAltL:     ModAlt,
	KeyAltR:     ModAlt,
	KeyMetaL:    ModMeta,
	KeyMetaR:    ModMeta,
}

// KeyboardState tracks which modifier keys are currently held, since RFB
// KeyEvent messages are level-triggered (down/up per physical key) rather
// than carrying an accumulated modifier mask the way some other protocols
// do.
type KeyboardState struct {
	mods Modifier
}

// Apply updates the modifier shadow for a KeyEvent and reports whether key
// was a modifier key (in which case the caller need not also forward a
// printable-character injection for it).
func (k *KeyboardState) Apply(key uint32, down bool) (mod Modifier, isModifier bool) {
	m, ok := modifierKeys[key]
	if !ok {
		return 0, false
	}
	if down {
		k.mods |= m
	} else {
		k.mods &^= m
	}
	return m, true
}

// Modifiers returns the current modifier shadow.
func (k *KeyboardState) Modifiers() Modifier { return k.mods }

// PointerState tracks the most recently reported pointer position and
// button mask, since RFB PointerEvent messages are absolute-position,
// full-button-mask snapshots rather than deltas.
type PointerState struct {
	X, Y       int
	ButtonMask uint8
}

// Apply updates the pointer shadow and returns the set of buttons whose
// state changed since the previous event (bit i of the result is set when
// button i's state flipped), the way a caller driving host pointer
// injection would act only on button transitions.
func (p *PointerState) Apply(x, y int, mask uint8) (changed uint8) {
	changed = p.ButtonMask ^ mask
	p.X, p.Y, p.ButtonMask = x, y, mask
	return changed
}
