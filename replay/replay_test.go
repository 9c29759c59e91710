package replay

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/murkland/retroglue/joypad"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func record(t *testing.T, steps []Step) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(nopCloser{&buf}, "mgba", "game.gba")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, s := range steps {
		if err := w.Write(s.Index, s.Input); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestRecordAndUnmarshal(t *testing.T) {
	var steps []Step
	for i := uint32(0); i < 200; i++ {
		steps = append(steps, Step{Index: i, Input: joypad.SnapshotFromJoyflags(uint8(i * 37))})
	}

	r, err := Unmarshal(bytes.NewReader(record(t, steps)))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if r.CoreName != "mgba" || r.ROMName != "game.gba" {
		t.Fatalf("header = %q, %q", r.CoreName, r.ROMName)
	}
	if len(r.Steps) != len(steps) {
		t.Fatalf("got %d steps, want %d", len(r.Steps), len(steps))
	}
	for i := range steps {
		if r.Steps[i] != steps[i] {
			t.Fatalf("step %d = %+v, want %+v", i, r.Steps[i], steps[i])
		}
	}
}

func TestUnmarshalTruncated(t *testing.T) {
	var raw bytes.Buffer
	raw.WriteString(replayHeader)
	raw.Write([]byte{replayVersion, 0, 0})
	raw.Write([]byte{1, 0, 0, 0, 0x10})
	raw.Write([]byte{2, 0, 0})

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	compressed := enc.EncodeAll(raw.Bytes(), nil)
	enc.Close()

	r, err := Unmarshal(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(r.Steps) != 1 || r.Steps[0].Index != 1 {
		t.Fatalf("steps = %+v", r.Steps)
	}
}

func TestUnmarshalRejectsOtherFormats(t *testing.T) {
	enc, _ := zstd.NewWriter(nil)
	compressed := enc.EncodeAll([]byte("TOOT\x04"), nil)
	enc.Close()

	if _, err := Unmarshal(bytes.NewReader(compressed)); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("Unmarshal error = %v, want ErrInvalidFormat", err)
	}
}

func TestWriteRejectsOutOfOrderSteps(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(nopCloser{&buf}, "core", "rom")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.Write(5, joypad.Snapshot{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(5, joypad.Snapshot{}); err == nil {
		t.Fatalf("Write accepted a repeated step")
	}
}

func TestPlayerHoldsInputBetweenSteps(t *testing.T) {
	a := joypad.Snapshot{}.With(joypad.ButtonA, true)
	up := joypad.Snapshot{}.With(joypad.ButtonUp, true)
	p := NewPlayer(&Replay{Steps: []Step{{Index: 2, Input: a}, {Index: 5, Input: up}}})

	tests := []struct {
		step uint32
		want joypad.Snapshot
		ok   bool
	}{
		{0, joypad.Snapshot{}, true},
		{2, a, true},
		{4, a, true},
		{5, up, true},
		{6, joypad.Snapshot{}, false},
	}
	for _, tt := range tests {
		got, ok := p.Input(tt.step)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Input(%d) = %s, %v, want %s, %v", tt.step, got, ok, tt.want, tt.ok)
		}
	}
}
