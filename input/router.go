// Package input routes physical key events onto the shared controller state.
package input

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/murkland/retroglue/joypad"
)

var (
	ErrStopped       = errors.New("router stopped")
	ErrInputHandling = errors.New("failed to handle key event")
)

type Router struct {
	state     *joypad.State
	mapping   *KeyMapping
	bindings  Bindings
	cancelKey ebiten.Key
	events    *Queue

	mu       sync.Mutex
	onChange func(joypad.Snapshot)
	stopped  bool
	faults   int

	done     chan struct{}
	stopOnce sync.Once
}

func NewRouter(state *joypad.State, mapping *KeyMapping, bindings Bindings, cancelKey ebiten.Key) *Router {
	return &Router{
		state:     state,
		mapping:   mapping,
		bindings:  bindings,
		cancelKey: cancelKey,
		events:    NewQueue(64),
		done:      make(chan struct{}),
	}
}

// OnChange sets a hook that receives the full controller snapshot after every change.
func (r *Router) OnChange(f func(joypad.Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = f
}

func (r *Router) OnKeyDown(key ebiten.Key) error {
	return r.handle(key, true)
}

// OnKeyUp releases the bound button. Releasing the cancel key stops the router.
func (r *Router) OnKeyUp(key ebiten.Key) error {
	return r.handle(key, false)
}

func (r *Router) handle(key ebiten.Key, down bool) (err error) {
	r.mu.Lock()
	stopped := r.stopped
	onChange := r.onChange
	r.mu.Unlock()

	if stopped {
		return ErrStopped
	}

	if key == r.cancelKey {
		if !down {
			log.Printf("cancel key %s released, no longer routing input", key)
			r.Stop()
		}
		return nil
	}

	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %s: %v", ErrInputHandling, key, v)
		}
		if err != nil {
			r.mu.Lock()
			r.faults++
			r.mu.Unlock()
			log.Printf("dropped key event: %s", err)
		}
	}()

	name, ok := r.mapping.Name(key)
	if !ok {
		return nil
	}
	button, ok := r.bindings[name]
	if !ok {
		return nil
	}
	if !button.Valid() {
		return fmt.Errorf("%w: %q is bound to %s", ErrInputHandling, name, button)
	}

	r.state.Set(button, down)
	if onChange != nil {
		onChange(r.state.Snapshot())
	}
	return nil
}

// Faults is the number of key events that failed and were dropped.
func (r *Router) Faults() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.faults
}

// Enqueue hands an event to the listener goroutine. It is safe to call from any goroutine.
func (r *Router) Enqueue(ev Event) {
	r.events.Push(ev)
}

// Start delivers queued events until the router stops or ctx is done. It returns nil when
// stopped and the context's error otherwise.
func (r *Router) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-r.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		evs, err := r.events.Pop(ctx)
		if err != nil {
			if r.Stopped() || errors.Is(err, ErrQueueClosed) {
				return nil
			}
			return err
		}

		for _, ev := range evs {
			if ev.Down {
				err = r.OnKeyDown(ev.Key)
			} else {
				err = r.OnKeyUp(ev.Key)
			}
			if errors.Is(err, ErrStopped) {
				return nil
			}
		}
	}
}

func (r *Router) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()
		r.events.Close()
		close(r.done)
	})
}

func (r *Router) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Done is closed once the router has stopped.
func (r *Router) Done() <-chan struct{} {
	return r.done
}
