package input

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/murkland/retroglue/joypad"
)

var letterKeys = [...]ebiten.Key{
	ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF, ebiten.KeyG,
	ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL, ebiten.KeyM, ebiten.KeyN,
	ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR, ebiten.KeyS, ebiten.KeyT, ebiten.KeyU,
	ebiten.KeyV, ebiten.KeyW, ebiten.KeyX, ebiten.KeyY, ebiten.KeyZ,
}

var digitKeys = [...]ebiten.Key{
	ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

// characters maps printable keys to the character they type.
var characters = func() map[ebiten.Key]string {
	m := make(map[ebiten.Key]string, len(letterKeys)+len(digitKeys))
	for i, k := range letterKeys {
		m[k] = string(rune('a' + i))
	}
	for i, k := range digitKeys {
		m[k] = string(rune('0' + i))
	}
	return m
}()

// KeyMapping turns physical keys into logical key names.
type KeyMapping struct {
	names map[ebiten.Key]string
}

func DefaultKeyMapping() *KeyMapping {
	return &KeyMapping{
		names: map[ebiten.Key]string{
			ebiten.KeyArrowUp:     "up",
			ebiten.KeyArrowDown:   "down",
			ebiten.KeyArrowLeft:   "left",
			ebiten.KeyArrowRight:  "right",
			ebiten.KeyEnter:       "enter",
			ebiten.KeyNumpadEnter: "enter",
			ebiten.KeyShiftLeft:   "shift",
			ebiten.KeyShiftRight:  "shift",
			ebiten.KeyEscape:      "escape",
			ebiten.KeySpace:       "space",
			ebiten.KeyBackspace:   "backspace",
			ebiten.KeyTab:         "tab",
		},
	}
}

// Alias makes key translate to name, overriding any existing entry.
func (m *KeyMapping) Alias(key ebiten.Key, name string) {
	m.names[key] = strings.ToLower(name)
}

// Name resolves key, falling back to the typed character for printable keys.
func (m *KeyMapping) Name(key ebiten.Key) (string, bool) {
	if name, ok := m.names[key]; ok {
		return name, true
	}
	if c, ok := characters[key]; ok {
		return c, true
	}
	return "", false
}

// Bindings assigns logical key names to controller buttons.
type Bindings map[string]joypad.Button

func DefaultBindings() Bindings {
	return Bindings{
		"up":    joypad.ButtonUp,
		"down":  joypad.ButtonDown,
		"left":  joypad.ButtonLeft,
		"right": joypad.ButtonRight,
		"z":     joypad.ButtonA,
		"x":     joypad.ButtonB,
		"enter": joypad.ButtonStart,
		"shift": joypad.ButtonSelect,
	}
}
