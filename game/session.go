package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/murkland/retroglue/av"
	"github.com/murkland/retroglue/host"
	"github.com/murkland/retroglue/input"
	"github.com/murkland/retroglue/joypad"
	"github.com/murkland/retroglue/replay"
	"github.com/murkland/retroglue/retro"
	"github.com/murkland/ringbuf"
	"golang.org/x/sync/errgroup"
)

const defaultFPS = 60

type Options struct {
	// FPSOverride paces steps at this rate instead of the core's timing when positive.
	FPSOverride float64
	// Unpaced runs steps back to back.
	Unpaced bool
	// MaxSteps stops the session after this many steps when positive.
	MaxSteps uint64
	// Playback drives the controller from a recording until it runs out.
	Playback *replay.Player
	// OpenRecording is called once the game is loaded to start recording the session.
	OpenRecording func(info retro.SystemInfo) (*replay.Writer, error)
}

type Stats struct {
	Steps          uint64
	Frames         uint64
	CallbackFaults uint64
	InputChanges   uint64
	InputFaults    int
	MedianStepTime time.Duration
}

// Session owns a core for its whole life: it initializes it, loads the game and runs it
// step by step on a single locked OS thread while the router delivers input.
type Session struct {
	core    retro.Core
	romPath string
	opts    Options

	state  *joypad.State
	sink   *av.Sink
	router *input.Router

	ready   chan struct{}
	done    chan struct{}
	avInfo  retro.SystemAVInfo
	sysInfo retro.SystemInfo

	steps        atomic.Uint64
	frames       atomic.Uint64
	faults       atomic.Uint64
	inputChanges atomic.Uint64

	stepTimes   *ringbuf.RingBuf[time.Duration]
	stepTimesMu sync.RWMutex
}

func NewSession(core retro.Core, romPath string, state *joypad.State, sink *av.Sink, router *input.Router, opts Options) *Session {
	s := &Session{
		core:    core,
		romPath: romPath,
		opts:    opts,

		state:  state,
		sink:   sink,
		router: router,

		ready: make(chan struct{}),
		done:  make(chan struct{}),

		stepTimes: ringbuf.New[time.Duration](120),
	}
	router.OnChange(func(joypad.Snapshot) {
		s.inputChanges.Add(1)
	})
	return s
}

// Run drives the session until the router stops, the step budget runs out or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		return s.router.Start(ctx)
	})

	errg.Go(func() error {
		defer s.router.Stop()
		return s.runCore(ctx)
	})

	return errg.Wait()
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Ready is closed once the game has loaded.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// SystemAVInfo is the zero value until Ready is closed.
func (s *Session) SystemAVInfo() retro.SystemAVInfo {
	select {
	case <-s.ready:
		return s.avInfo
	default:
		return retro.SystemAVInfo{}
	}
}

// SystemInfo is the zero value until Ready is closed.
func (s *Session) SystemInfo() retro.SystemInfo {
	select {
	case <-s.ready:
		return s.sysInfo
	default:
		return retro.SystemInfo{}
	}
}

// SetControllerState replaces the whole controller state. Missing and unknown buttons are
// reported in the returned error but the update is still applied.
func (s *Session) SetControllerState(m map[string]bool) error {
	err := s.state.Replace(m)
	var serr *joypad.SnapshotError
	if errors.As(err, &serr) {
		log.Printf("controller state update: %s", serr)
	}
	return err
}

func (s *Session) runCore(ctx context.Context) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := host.New(s.core, s.state, s.sink)
	defer func() {
		if shutdownErr := h.Shutdown(); shutdownErr != nil {
			log.Printf("core shutdown: %s", shutdownErr)
		}
	}()

	if err := h.Init(); err != nil {
		return fmt.Errorf("failed to init core: %w", err)
	}
	s.sysInfo = h.SystemInfo()

	if err := h.LoadGame(s.romPath); err != nil {
		return fmt.Errorf("failed to load game: %w", err)
	}
	s.avInfo, _ = h.SystemAVInfo()
	close(s.ready)

	var rw *replay.Writer
	if s.opts.OpenRecording != nil {
		rw, err = s.opts.OpenRecording(s.sysInfo)
		if err != nil {
			return fmt.Errorf("failed to open recording: %w", err)
		}
		defer func() {
			if err := rw.Close(); err != nil {
				log.Printf("failed to close recording: %s", err)
			}
		}()
	}

	fps := s.opts.FPSOverride
	if fps <= 0 {
		fps = s.avInfo.Timing.FPS
	}
	if fps <= 0 {
		fps = defaultFPS
	}
	log.Printf("running %s at %.2f fps", s.romPath, fps)

	var tick <-chan time.Time
	if !s.opts.Unpaced {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
		defer ticker.Stop()
		tick = ticker.C
	}

	playback := s.opts.Playback
	for step := uint32(0); ; step++ {
		if s.opts.MaxSteps > 0 && uint64(step) >= s.opts.MaxSteps {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.router.Done():
			log.Printf("input stopped, ending session after %d steps", step)
			return nil
		default:
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.router.Done():
				return nil
			case <-tick:
			}
		}

		if playback != nil {
			input, ok := playback.Input(step)
			if ok {
				s.state.ReplaceSnapshot(input)
			} else {
				log.Printf("playback finished at step %d", step)
				playback = nil
				s.state.Reset()
			}
		}

		start := time.Now()
		f, err := h.RunStep()
		if err != nil {
			return err
		}
		s.recordStepTime(time.Since(start))

		s.steps.Add(1)
		if f != nil {
			s.frames.Add(1)
		}
		s.faults.Store(h.CallbackFaults())

		if rw != nil {
			if err := rw.Write(step, h.LatchedInput()); err != nil {
				return fmt.Errorf("failed to write recording: %w", err)
			}
		}
	}
}

func (s *Session) recordStepTime(d time.Duration) {
	s.stepTimesMu.Lock()
	defer s.stepTimesMu.Unlock()

	if s.stepTimes.Free() == 0 {
		s.stepTimes.Advance(1)
	}
	s.stepTimes.Push([]time.Duration{d})
}

func (s *Session) Stats() Stats {
	return Stats{
		Steps:          s.steps.Load(),
		Frames:         s.frames.Load(),
		CallbackFaults: s.faults.Load(),
		InputChanges:   s.inputChanges.Load(),
		InputFaults:    s.router.Faults(),
		MedianStepTime: s.medianStepTime(),
	}
}
