package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/murkland/retroglue/joypad"
)

type Core struct {
	Path string
	// FPSOverride paces the session at this rate instead of the core's reported timing.
	FPSOverride float64
}

type ROM struct {
	Dir string
}

type Keymapping struct {
	// Bindings assigns key names, as produced by the key mapping, to button names.
	Bindings map[string]string
	// Aliases gives physical keys, by ebiten name, an explicit key name.
	Aliases map[string]string
	Cancel  Key
}

type Video struct {
	Scale         int
	ScreenshotDir string
}

type Recording struct {
	Dir     string
	Enabled bool
}

type Config struct {
	Core       Core
	ROM        ROM
	Keymapping Keymapping
	Video      Video
	Recording  Recording
}

func Default() Config {
	return Config{
		Core: Core{
			Path: "cores/mgba_libretro.so",
		},
		ROM: ROM{
			Dir: "roms",
		},
		Keymapping: Keymapping{
			Bindings: map[string]string{
				"up":    "UP",
				"down":  "DOWN",
				"left":  "LEFT",
				"right": "RIGHT",
				"z":     "A",
				"x":     "B",
				"enter": "START",
				"shift": "SELECT",
			},
			Aliases: map[string]string{},
			Cancel:  Key(ebiten.KeyEscape),
		},
		Video: Video{
			Scale:         3,
			ScreenshotDir: "screenshots",
		},
		Recording: Recording{
			Dir:     "replays",
			Enabled: true,
		},
	}
}

func Save(config Config, w io.Writer) error {
	return toml.NewEncoder(w).Encode(config)
}

func Load(r io.Reader) (Config, error) {
	c := Default()

	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return c, err
	}

	// A bindings table replaces the defaults instead of merging into them.
	if md.IsDefined("Keymapping", "Bindings") {
		bindings := map[string]string{}
		for name, button := range c.Keymapping.Bindings {
			if md.IsDefined("Keymapping", "Bindings", name) {
				bindings[name] = button
			}
		}
		c.Keymapping.Bindings = bindings
	}

	return c, nil
}

// ButtonBindings resolves Bindings. Key names are lowercased.
func (k Keymapping) ButtonBindings() (map[string]joypad.Button, error) {
	bindings := make(map[string]joypad.Button, len(k.Bindings))
	for name, buttonName := range k.Bindings {
		button, ok := joypad.ParseButton(buttonName)
		if !ok {
			return nil, fmt.Errorf("binding %q: unknown button %q", name, buttonName)
		}
		bindings[strings.ToLower(name)] = button
	}
	return bindings, nil
}

// KeyAliases resolves Aliases.
func (k Keymapping) KeyAliases() (map[ebiten.Key]string, error) {
	aliases := make(map[ebiten.Key]string, len(k.Aliases))
	for keyName, name := range k.Aliases {
		var key Key
		if err := key.UnmarshalText([]byte(keyName)); err != nil {
			return nil, fmt.Errorf("alias %q: %w", keyName, err)
		}
		aliases[ebiten.Key(key)] = name
	}
	return aliases, nil
}
