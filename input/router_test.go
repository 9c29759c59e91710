package input

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/murkland/retroglue/joypad"
)

func newTestRouter() (*Router, *joypad.State) {
	state := joypad.NewState()
	return NewRouter(state, DefaultKeyMapping(), DefaultBindings(), ebiten.KeyEscape), state
}

func TestDefaultRouting(t *testing.T) {
	tests := []struct {
		key    ebiten.Key
		button joypad.Button
	}{
		{ebiten.KeyZ, joypad.ButtonA},
		{ebiten.KeyX, joypad.ButtonB},
		{ebiten.KeyEnter, joypad.ButtonStart},
		{ebiten.KeyNumpadEnter, joypad.ButtonStart},
		{ebiten.KeyShiftLeft, joypad.ButtonSelect},
		{ebiten.KeyShiftRight, joypad.ButtonSelect},
		{ebiten.KeyArrowUp, joypad.ButtonUp},
		{ebiten.KeyArrowDown, joypad.ButtonDown},
		{ebiten.KeyArrowLeft, joypad.ButtonLeft},
		{ebiten.KeyArrowRight, joypad.ButtonRight},
	}
	for _, tt := range tests {
		r, state := newTestRouter()
		if err := r.OnKeyDown(tt.key); err != nil {
			t.Fatalf("OnKeyDown(%s): %v", tt.key, err)
		}
		if !state.Get(tt.button) {
			t.Errorf("%s did not press %s", tt.key, tt.button)
		}
		if err := r.OnKeyUp(tt.key); err != nil {
			t.Fatalf("OnKeyUp(%s): %v", tt.key, err)
		}
		if state.Get(tt.button) {
			t.Errorf("%s did not release %s", tt.key, tt.button)
		}
	}
}

func TestUnmappedKeyDropped(t *testing.T) {
	r, state := newTestRouter()
	for _, key := range []ebiten.Key{ebiten.KeyQ, ebiten.KeyF5, ebiten.KeySpace} {
		if err := r.OnKeyDown(key); err != nil {
			t.Fatalf("OnKeyDown(%s): %v", key, err)
		}
	}
	if state.Snapshot() != (joypad.Snapshot{}) {
		t.Fatalf("unmapped keys changed state: %s", state.Snapshot())
	}
	if r.Faults() != 0 {
		t.Fatalf("unmapped keys counted as faults")
	}
}

func TestAliasOverridesCharacter(t *testing.T) {
	state := joypad.NewState()
	mapping := DefaultKeyMapping()
	mapping.Alias(ebiten.KeyK, "Z")
	r := NewRouter(state, mapping, DefaultBindings(), ebiten.KeyEscape)

	if err := r.OnKeyDown(ebiten.KeyK); err != nil {
		t.Fatalf("OnKeyDown: %v", err)
	}
	if !state.Get(joypad.ButtonA) {
		t.Fatalf("aliased key did not press A")
	}
}

func TestReplayMatchesLastEvent(t *testing.T) {
	keys := map[ebiten.Key]joypad.Button{
		ebiten.KeyZ:          joypad.ButtonA,
		ebiten.KeyX:          joypad.ButtonB,
		ebiten.KeyEnter:      joypad.ButtonStart,
		ebiten.KeyShiftLeft:  joypad.ButtonSelect,
		ebiten.KeyArrowUp:    joypad.ButtonUp,
		ebiten.KeyArrowDown:  joypad.ButtonDown,
		ebiten.KeyArrowLeft:  joypad.ButtonLeft,
		ebiten.KeyArrowRight: joypad.ButtonRight,
	}
	var order []ebiten.Key
	for k := range keys {
		order = append(order, k)
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		r, state := newTestRouter()
		var want joypad.Snapshot
		for i := 0; i < 200; i++ {
			key := order[rng.Intn(len(order))]
			down := rng.Intn(2) == 0
			if down {
				r.OnKeyDown(key)
			} else {
				r.OnKeyUp(key)
			}
			want = want.With(keys[key], down)
		}
		if got := state.Snapshot(); got != want {
			t.Fatalf("trial %d: state %s, want %s", trial, got, want)
		}
	}
}

func TestOnChangeReceivesFullSnapshot(t *testing.T) {
	r, _ := newTestRouter()
	var got []joypad.Snapshot
	r.OnChange(func(s joypad.Snapshot) { got = append(got, s) })

	r.OnKeyDown(ebiten.KeyZ)
	r.OnKeyDown(ebiten.KeyArrowUp)
	r.OnKeyUp(ebiten.KeyZ)

	want := []joypad.Snapshot{
		joypad.Snapshot{}.With(joypad.ButtonA, true),
		joypad.Snapshot{}.With(joypad.ButtonA, true).With(joypad.ButtonUp, true),
		joypad.Snapshot{}.With(joypad.ButtonUp, true),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d snapshots, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("snapshot %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPanickingHandlerIsAbsorbed(t *testing.T) {
	r, state := newTestRouter()
	r.OnChange(func(s joypad.Snapshot) {
		if s.Pressed(joypad.ButtonB) {
			panic("bad hook")
		}
	})

	err := r.OnKeyDown(ebiten.KeyX)
	if !errors.Is(err, ErrInputHandling) {
		t.Fatalf("OnKeyDown error = %v, want ErrInputHandling", err)
	}
	if r.Faults() != 1 {
		t.Fatalf("Faults() = %d, want 1", r.Faults())
	}

	if err := r.OnKeyDown(ebiten.KeyZ); err != nil {
		t.Fatalf("router did not survive a bad event: %v", err)
	}
	if !state.Get(joypad.ButtonA) {
		t.Fatalf("event after a fault was not delivered")
	}
}

func TestInvalidBindingIsAbsorbed(t *testing.T) {
	state := joypad.NewState()
	r := NewRouter(state, DefaultKeyMapping(), Bindings{"q": joypad.Button(42), "z": joypad.ButtonA}, ebiten.KeyEscape)
	if err := r.OnKeyDown(ebiten.KeyQ); !errors.Is(err, ErrInputHandling) {
		t.Fatalf("OnKeyDown error = %v, want ErrInputHandling", err)
	}
	if err := r.OnKeyDown(ebiten.KeyZ); err != nil {
		t.Fatalf("OnKeyDown: %v", err)
	}
	if !state.Get(joypad.ButtonA) {
		t.Fatalf("A not pressed")
	}
}

func TestCancelKeyStopsOnRelease(t *testing.T) {
	r, state := newTestRouter()

	if err := r.OnKeyDown(ebiten.KeyEscape); err != nil {
		t.Fatalf("OnKeyDown(escape): %v", err)
	}
	if r.Stopped() {
		t.Fatalf("router stopped on cancel key press")
	}
	if err := r.OnKeyUp(ebiten.KeyEscape); err != nil {
		t.Fatalf("OnKeyUp(escape): %v", err)
	}

	select {
	case <-r.Done():
	default:
		t.Fatalf("Done not closed after cancel key")
	}

	if err := r.OnKeyDown(ebiten.KeyZ); !errors.Is(err, ErrStopped) {
		t.Fatalf("OnKeyDown after cancel = %v, want ErrStopped", err)
	}
	if state.Get(joypad.ButtonA) {
		t.Fatalf("event delivered after cancel")
	}
}

func TestStartDeliversQueuedEvents(t *testing.T) {
	r, state := newTestRouter()
	changed := make(chan joypad.Snapshot, 8)
	r.OnChange(func(s joypad.Snapshot) { changed <- s })

	errCh := make(chan error, 1)
	go func() { errCh <- r.Start(context.Background()) }()

	r.Enqueue(Event{Key: ebiten.KeyArrowLeft, Down: true})
	select {
	case s := <-changed:
		if !s.Pressed(joypad.ButtonLeft) {
			t.Fatalf("snapshot %s, want LEFT pressed", s)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("event never delivered")
	}

	r.Enqueue(Event{Key: ebiten.KeyEscape, Down: true})
	r.Enqueue(Event{Key: ebiten.KeyEscape, Down: false})
	r.Enqueue(Event{Key: ebiten.KeyZ, Down: true})

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Start did not return after cancel key")
	}
	if state.Get(joypad.ButtonA) {
		t.Fatalf("event after cancel was delivered")
	}
}

func TestStartReturnsContextError(t *testing.T) {
	r, _ := newTestRouter()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Start(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Start error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Start did not return after cancel")
	}
}

func TestQueueDropsOldest(t *testing.T) {
	q := NewQueue(2)
	q.Push(Event{Key: ebiten.KeyA, Down: true})
	q.Push(Event{Key: ebiten.KeyB, Down: true})
	q.Push(Event{Key: ebiten.KeyC, Down: true})

	evs, err := q.Pop(context.Background())
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if len(evs) != 2 || evs[0].Key != ebiten.KeyB || evs[1].Key != ebiten.KeyC {
		t.Fatalf("Pop = %v", evs)
	}
	if q.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", q.Dropped())
	}

	q.Close()
	if _, err := q.Pop(context.Background()); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Pop after close = %v, want ErrQueueClosed", err)
	}
}

func TestQueueOverflowKeepsReleases(t *testing.T) {
	q := NewQueue(2)
	q.Push(Event{Key: ebiten.KeyA, Down: true})
	q.Push(Event{Key: ebiten.KeyA, Down: false})
	q.Push(Event{Key: ebiten.KeyB, Down: true})
	q.Push(Event{Key: ebiten.KeyB, Down: false})

	evs, err := q.Pop(context.Background())
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	want := []Event{{Key: ebiten.KeyA, Down: false}, {Key: ebiten.KeyB, Down: false}}
	if len(evs) != len(want) || evs[0] != want[0] || evs[1] != want[1] {
		t.Fatalf("Pop = %v, want %v", evs, want)
	}
	if q.Dropped() != 2 {
		t.Fatalf("Dropped() = %d, want 2", q.Dropped())
	}
}
