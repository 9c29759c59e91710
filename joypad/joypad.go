// Package joypad holds the controller state shared between the key router and the core host.
package joypad

import (
	"fmt"
	"strings"
)

type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB
	ButtonStart
	ButtonSelect

	NumButtons = 8
)

var buttonNames = [NumButtons]string{
	ButtonUp:     "UP",
	ButtonDown:   "DOWN",
	ButtonLeft:   "LEFT",
	ButtonRight:  "RIGHT",
	ButtonA:      "A",
	ButtonB:      "B",
	ButtonStart:  "START",
	ButtonSelect: "SELECT",
}

// Buttons lists every button in canonical order.
var Buttons = [NumButtons]Button{
	ButtonUp, ButtonDown, ButtonLeft, ButtonRight,
	ButtonA, ButtonB, ButtonStart, ButtonSelect,
}

func (b Button) Valid() bool {
	return b >= 0 && b < NumButtons
}

func (b Button) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Button(%d)", int(b))
	}
	return buttonNames[b]
}

// ParseButton resolves a button name. Names are matched case-insensitively.
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return Button(i), true
		}
	}
	return 0, false
}

func (b Button) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("unknown button: %d", int(b))
	}
	return []byte(buttonNames[b]), nil
}

func (b *Button) UnmarshalText(text []byte) error {
	v, ok := ParseButton(string(text))
	if !ok {
		return fmt.Errorf("unknown button: %s", string(text))
	}
	*b = v
	return nil
}
