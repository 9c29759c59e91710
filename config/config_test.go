package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/murkland/retroglue/joypad"
)

func TestDefaultRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(Default(), &buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	c, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Keymapping.Cancel != Key(ebiten.KeyEscape) {
		t.Errorf("Cancel = %s, want Escape", c.Keymapping.Cancel)
	}
	if len(c.Keymapping.Bindings) != len(Default().Keymapping.Bindings) {
		t.Errorf("Bindings = %v", c.Keymapping.Bindings)
	}
	if c.Video.Scale != 3 || c.Core.Path != Default().Core.Path {
		t.Errorf("config = %+v", c)
	}
}

func TestLoadOverrides(t *testing.T) {
	c, err := Load(strings.NewReader(`
[Core]
Path = "/usr/lib/libretro/snes9x_libretro.so"
FPSOverride = 30.0

[Keymapping]
Cancel = "Q"

[Keymapping.Bindings]
a = "A"
S = "start"

[Keymapping.Aliases]
K = "a"
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Core.Path != "/usr/lib/libretro/snes9x_libretro.so" || c.Core.FPSOverride != 30 {
		t.Errorf("Core = %+v", c.Core)
	}
	if c.Keymapping.Cancel != Key(ebiten.KeyQ) {
		t.Errorf("Cancel = %s, want Q", c.Keymapping.Cancel)
	}
	if c.Video.Scale != 3 {
		t.Errorf("unset section lost its default: %+v", c.Video)
	}

	bindings, err := c.Keymapping.ButtonBindings()
	if err != nil {
		t.Fatalf("ButtonBindings: %v", err)
	}
	want := map[string]joypad.Button{"a": joypad.ButtonA, "s": joypad.ButtonStart}
	if len(bindings) != len(want) {
		t.Fatalf("bindings = %v, want %v", bindings, want)
	}
	for k, v := range want {
		if bindings[k] != v {
			t.Errorf("bindings[%q] = %s, want %s", k, bindings[k], v)
		}
	}

	aliases, err := c.Keymapping.KeyAliases()
	if err != nil {
		t.Fatalf("KeyAliases: %v", err)
	}
	if aliases[ebiten.KeyK] != "a" {
		t.Errorf("aliases = %v", aliases)
	}
}

func TestUnknownNamesRejected(t *testing.T) {
	if _, err := Load(strings.NewReader("[Keymapping]\nCancel = \"NotAKey\"\n")); err == nil {
		t.Errorf("Load accepted an unknown cancel key")
	}

	k := Keymapping{Bindings: map[string]string{"z": "TURBO"}}
	if _, err := k.ButtonBindings(); err == nil {
		t.Errorf("ButtonBindings accepted an unknown button")
	}

	k = Keymapping{Aliases: map[string]string{"NotAKey": "z"}}
	if _, err := k.KeyAliases(); err == nil {
		t.Errorf("KeyAliases accepted an unknown key")
	}
}
