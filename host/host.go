// Package host drives a libretro core: it owns the plugin lifecycle, answers the core's
// callbacks from the shared joypad state and collects the frames it produces.
package host

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/murkland/retroglue/av"
	"github.com/murkland/retroglue/joypad"
	"github.com/murkland/retroglue/retro"
	"github.com/murkland/retroglue/rom"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrPluginRejected   = errors.New("plugin rejected request")
	ErrNotLoaded        = errors.New("no game loaded")
)

type lifecycle int

const (
	lifecycleCreated lifecycle = iota
	lifecycleInitialized
	lifecycleLoaded
	lifecycleShutdown
)

func (l lifecycle) String() string {
	switch l {
	case lifecycleCreated:
		return "created"
	case lifecycleInitialized:
		return "initialized"
	case lifecycleLoaded:
		return "loaded"
	case lifecycleShutdown:
		return "shut down"
	default:
		return "unknown"
	}
}

// retroJoypad maps libretro joypad ids to logical buttons. Y and X exist in the ABI but
// are not wired to any button.
var retroJoypad = [...]struct {
	button joypad.Button
	ok     bool
}{
	retro.JoypadB:      {joypad.ButtonB, true},
	retro.JoypadY:      {},
	retro.JoypadSelect: {joypad.ButtonSelect, true},
	retro.JoypadStart:  {joypad.ButtonStart, true},
	retro.JoypadUp:     {joypad.ButtonUp, true},
	retro.JoypadDown:   {joypad.ButtonDown, true},
	retro.JoypadLeft:   {joypad.ButtonLeft, true},
	retro.JoypadRight:  {joypad.ButtonRight, true},
	retro.JoypadA:      {joypad.ButtonA, true},
	retro.JoypadX:      {},
}

// Host is a single emulation session. It is not goroutine-safe: every method must be
// called from the goroutine that drives the core, which should be locked to its thread.
type Host struct {
	core  retro.Core
	input *joypad.State
	sink  *av.Sink

	state      lifecycle
	systemInfo retro.SystemInfo

	// latched is the controller state for the step in progress.
	latched joypad.Snapshot

	stepFrame      *av.Frame
	steps          uint64
	callbackFaults uint64
	lastFault      error
	seenEnvCmds    map[uint]struct{}
}

func New(core retro.Core, input *joypad.State, sink *av.Sink) *Host {
	return &Host{
		core:        core,
		input:       input,
		sink:        sink,
		seenEnvCmds: map[uint]struct{}{},
	}
}

// Init registers every callback with the core and then initializes it.
func (h *Host) Init() error {
	if h.state != lifecycleCreated {
		return fmt.Errorf("cannot init: host is %s", h.state)
	}

	if v := h.core.APIVersion(); v != retro.APIVersion {
		return fmt.Errorf("%w: api version %d, want %d", ErrPluginRejected, v, retro.APIVersion)
	}

	h.core.SetCallbacks(h)
	h.core.Init()
	h.systemInfo = h.core.SystemInfo()
	h.state = lifecycleInitialized

	log.Printf("core initialized: %s %s", h.systemInfo.LibraryName, h.systemInfo.LibraryVersion)
	return nil
}

func (h *Host) SystemInfo() retro.SystemInfo {
	return h.systemInfo
}

func (h *Host) SystemAVInfo() (retro.SystemAVInfo, error) {
	if h.state != lifecycleLoaded {
		return retro.SystemAVInfo{}, ErrNotLoaded
	}
	return h.core.SystemAVInfo(), nil
}

// LoadGame hands the ROM at romPath to the core. On any failure the host stays unloaded.
func (h *Host) LoadGame(romPath string) error {
	switch h.state {
	case lifecycleInitialized:
	case lifecycleLoaded:
		return fmt.Errorf("cannot load %s: a game is already loaded", romPath)
	default:
		return fmt.Errorf("cannot load %s: host is %s", romPath, h.state)
	}

	if _, err := os.Stat(romPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrResourceNotFound, romPath)
		}
		return fmt.Errorf("%w: %s: %s", ErrResourceNotFound, romPath, err)
	}

	game := retro.GameInfo{Path: romPath}
	if !h.systemInfo.NeedFullpath {
		data, name, err := rom.Load(romPath, h.systemInfo.ValidExtensions)
		if errors.Is(err, rom.ErrUnsupportedFormat) {
			// The core gets the last word on files it does not advertise.
			name = filepath.Base(romPath)
			data, err = rom.ReadRaw(romPath)
		}
		if err != nil {
			return fmt.Errorf("%w: cannot read %s: %s", ErrResourceNotFound, romPath, err)
		}
		game.Data = data
		log.Printf("read %d bytes of rom data from %s (%s)", len(data), romPath, name)
	}

	if !h.core.LoadGame(game) {
		return fmt.Errorf("%w: core refused to load %s", ErrPluginRejected, romPath)
	}

	h.state = lifecycleLoaded
	return nil
}

func (h *Host) Loaded() bool {
	return h.state == lifecycleLoaded
}

// RunStep runs the core for exactly one step. It returns the frame produced by the step,
// or nil if the core produced none.
func (h *Host) RunStep() (*av.Frame, error) {
	if h.state != lifecycleLoaded {
		return nil, fmt.Errorf("cannot run: %w (host is %s)", ErrNotLoaded, h.state)
	}

	h.latched = h.input.Snapshot()
	h.stepFrame = nil
	h.core.Run()
	h.steps++

	f := h.stepFrame
	h.stepFrame = nil
	return f, nil
}

// LatchedInput is the controller state the most recent step was run with.
func (h *Host) LatchedInput() joypad.Snapshot {
	return h.latched
}

func (h *Host) Steps() uint64 {
	return h.steps
}

// CallbackFaults is the number of malformed callbacks absorbed so far.
func (h *Host) CallbackFaults() uint64 {
	return h.callbackFaults
}

func (h *Host) LastFault() error {
	return h.lastFault
}

// Shutdown unloads the game, deinitializes and releases the core. It never panics; any
// failures are collected into the returned error. Calling it again is a no-op.
func (h *Host) Shutdown() error {
	if h.state == lifecycleShutdown {
		return nil
	}
	prev := h.state
	h.state = lifecycleShutdown

	var errs []error
	if prev == lifecycleLoaded {
		errs = append(errs, guard("unload game", h.core.UnloadGame))
	}
	if prev != lifecycleCreated {
		errs = append(errs, guard("deinit", h.core.Deinit))
	}
	errs = append(errs, guard("close", func() {
		if err := h.core.Close(); err != nil {
			panic(err)
		}
	}))
	return errors.Join(errs...)
}

func guard(what string, f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", what, r)
		}
	}()
	f()
	return nil
}

// Environment reports every query as unsupported. This is the boundary of the host:
// pixel format, variables, save directories and the like are never negotiated.
func (h *Host) Environment(cmd uint, data unsafe.Pointer) bool {
	if _, ok := h.seenEnvCmds[cmd]; !ok {
		h.seenEnvCmds[cmd] = struct{}{}
		log.Printf("core environment query %d: unsupported", cmd)
	}
	return false
}

func (h *Host) VideoRefresh(buf []byte, width int, height int, pitch int) {
	f, err := h.sink.Publish(buf, width, height, pitch)
	if err != nil {
		h.callbackFaults++
		h.lastFault = err
		if h.callbackFaults == 1 || h.callbackFaults%600 == 0 {
			log.Printf("video refresh ignored (%d so far): %s", h.callbackFaults, err)
		}
		return
	}
	h.stepFrame = f
}

func (h *Host) AudioSample(left int16, right int16) {
}

func (h *Host) AudioSampleBatch(buf []int16, frames int) int {
	return frames
}

func (h *Host) InputPoll() {
}

func (h *Host) InputState(port uint, device uint, index uint, id uint) int16 {
	if port != 0 || device != retro.DeviceJoypad {
		return 0
	}
	if id >= uint(len(retroJoypad)) {
		return 0
	}
	m := retroJoypad[id]
	if !m.ok || !h.latched.Pressed(m.button) {
		return 0
	}
	return 1
}
