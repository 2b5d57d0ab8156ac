package input

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyboardState_ModifierTracksDownUp(t *testing.T) {
	var k KeyboardState
	mod, isMod := k.Apply(KeyShiftL, true)
	require.True(t, isMod)
	require.Equal(t, ModShift, mod)
	require.Equal(t, ModShift, k.Modifiers())

	_, _ = k.Apply(KeyShiftL, false)
	require.Equal(t, Modifier(0), k.Modifiers())
}

func TestKeyboardState_IgnoresPrintableKeys(t *testing.T) {
	var k KeyboardState
	_, isMod := k.Apply('a', true)
	require.False(t, isMod)
}

func TestPointerState_ReportsChangedButtons(t *testing.T) {
	var p PointerState
	changed := p.Apply(10, 20, 0b001)
	require.Equal(t, uint8(0b001), changed)

	changed = p.Apply(11, 20, 0b011)
	require.Equal(t, uint8(0b010), changed, "only button 1 flipped")
}
