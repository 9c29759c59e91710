package libretro

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenMissingLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing_libretro.so")
	for i := 0; i < 2; i++ {
		c, err := Open(path)
		if err == nil {
			c.Close()
			t.Fatalf("Open(%q) succeeded", path)
		}
		if errors.Is(err, ErrCoreActive) {
			t.Fatalf("Open after failed Open = %v, want a load error", err)
		}
	}
	if cb := activeCallbacks(); cb != nil {
		t.Fatalf("activeCallbacks() = %v, want nil", cb)
	}
}
