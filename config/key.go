package config

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Key is a physical key, written in config files by its ebiten name.
type Key ebiten.Key

var keysByName = func() map[string]ebiten.Key {
	m := map[string]ebiten.Key{}
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		m[strings.ToLower(k.String())] = k
	}
	return m
}()

func (k Key) MarshalText() ([]byte, error) {
	return []byte(ebiten.Key(k).String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	v, ok := keysByName[strings.ToLower(string(text))]
	if !ok {
		return fmt.Errorf("unknown key: %s", string(text))
	}
	*k = Key(v)
	return nil
}

func (k Key) String() string {
	return ebiten.Key(k).String()
}
