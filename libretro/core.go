// Package libretro loads a libretro core shared object and drives it through cgo.
package libretro

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
#include "libretro.h"

static void *retroglue_dlopen(const char *path) {
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}

static const char *retroglue_dlerror(void) {
	return dlerror();
}

static void retroglue_call_void(void *f) {
	((void (*)(void))f)();
}

static unsigned retroglue_call_api_version(void *f) {
	return ((unsigned (*)(void))f)();
}

static void retroglue_call_get_system_info(void *f, struct retro_system_info *si) {
	((void (*)(struct retro_system_info *))f)(si);
}

static void retroglue_call_get_system_av_info(void *f, struct retro_system_av_info *av) {
	((void (*)(struct retro_system_av_info *))f)(av);
}

static bool retroglue_call_load_game(void *f, struct retro_game_info *gi) {
	return ((bool (*)(const struct retro_game_info *))f)(gi);
}

static void retroglue_call_set_environment(void *f, void *cb) {
	((void (*)(retro_environment_t))f)((retro_environment_t)cb);
}

static void retroglue_call_set_video_refresh(void *f, void *cb) {
	((void (*)(retro_video_refresh_t))f)((retro_video_refresh_t)cb);
}

static void retroglue_call_set_audio_sample(void *f, void *cb) {
	((void (*)(retro_audio_sample_t))f)((retro_audio_sample_t)cb);
}

static void retroglue_call_set_audio_sample_batch(void *f, void *cb) {
	((void (*)(retro_audio_sample_batch_t))f)((retro_audio_sample_batch_t)cb);
}

static void retroglue_call_set_input_poll(void *f, void *cb) {
	((void (*)(retro_input_poll_t))f)((retro_input_poll_t)cb);
}

static void retroglue_call_set_input_state(void *f, void *cb) {
	((void (*)(retro_input_state_t))f)((retro_input_state_t)cb);
}

static bool retroglue_environment_cgo(unsigned cmd, void *data) {
	bool retroglue_cgo_environment(unsigned, void*);
	return retroglue_cgo_environment(cmd, data);
}

static void retroglue_video_refresh_cgo(const void *data, unsigned width, unsigned height, size_t pitch) {
	void retroglue_cgo_video_refresh(void*, unsigned, unsigned, size_t);
	retroglue_cgo_video_refresh((void*)data, width, height, pitch);
}

static void retroglue_audio_sample_cgo(int16_t left, int16_t right) {
	void retroglue_cgo_audio_sample(int16_t, int16_t);
	retroglue_cgo_audio_sample(left, right);
}

static size_t retroglue_audio_sample_batch_cgo(const int16_t *data, size_t frames) {
	size_t retroglue_cgo_audio_sample_batch(int16_t*, size_t);
	return retroglue_cgo_audio_sample_batch((int16_t*)data, frames);
}

static void retroglue_input_poll_cgo(void) {
	void retroglue_cgo_input_poll(void);
	retroglue_cgo_input_poll();
}

static int16_t retroglue_input_state_cgo(unsigned port, unsigned device, unsigned index, unsigned id) {
	int16_t retroglue_cgo_input_state(unsigned, unsigned, unsigned, unsigned);
	return retroglue_cgo_input_state(port, device, index, id);
}

static void *retroglue_environment_ptr(void) { return (void*)retroglue_environment_cgo; }
static void *retroglue_video_refresh_ptr(void) { return (void*)retroglue_video_refresh_cgo; }
static void *retroglue_audio_sample_ptr(void) { return (void*)retroglue_audio_sample_cgo; }
static void *retroglue_audio_sample_batch_ptr(void) { return (void*)retroglue_audio_sample_batch_cgo; }
static void *retroglue_input_poll_ptr(void) { return (void*)retroglue_input_poll_cgo; }
static void *retroglue_input_state_ptr(void) { return (void*)retroglue_input_state_cgo; }
*/
import "C"
import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/murkland/retroglue/retro"
)

var ErrCoreActive = errors.New("another libretro core is already active")

type symbols struct {
	init                unsafe.Pointer
	deinit              unsafe.Pointer
	apiVersion          unsafe.Pointer
	getSystemInfo       unsafe.Pointer
	getSystemAVInfo     unsafe.Pointer
	setEnvironment      unsafe.Pointer
	setVideoRefresh     unsafe.Pointer
	setAudioSample      unsafe.Pointer
	setAudioSampleBatch unsafe.Pointer
	setInputPoll        unsafe.Pointer
	setInputState       unsafe.Pointer
	run                 unsafe.Pointer
	loadGame            unsafe.Pointer
	unloadGame          unsafe.Pointer
}

// Core is a dlopened libretro core. It implements retro.Core.
type Core struct {
	path   string
	handle unsafe.Pointer
	syms   symbols
	cb     retro.Callbacks

	// C copies of the loaded game, kept alive until UnloadGame.
	gameInfo *C.struct_retro_game_info
}

// libretro callbacks carry no user data, so the core whose callbacks are installed is
// tracked here. Only one core can be open at a time.
var (
	activeMu sync.Mutex
	active   *Core
)

func activeCallbacks() retro.Callbacks {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active == nil {
		return nil
	}
	return active.cb
}

// Open loads the shared object at path and resolves every retro_* entry point. The core
// stays registered as the active core until Close is called.
func Open(path string) (*Core, error) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil {
		return nil, fmt.Errorf("%w: %s", ErrCoreActive, active.path)
	}

	pathCstr := C.CString(path)
	defer C.free(unsafe.Pointer(pathCstr))

	handle := C.retroglue_dlopen(pathCstr)
	if handle == nil {
		return nil, fmt.Errorf("could not open core %s: %s", path, C.GoString(C.retroglue_dlerror()))
	}

	c := &Core{path: path, handle: handle}
	if err := c.resolve(); err != nil {
		C.dlclose(handle)
		return nil, err
	}

	active = c
	return c, nil
}

func (c *Core) resolve() error {
	for _, s := range []struct {
		name string
		dst  *unsafe.Pointer
	}{
		{"retro_init", &c.syms.init},
		{"retro_deinit", &c.syms.deinit},
		{"retro_api_version", &c.syms.apiVersion},
		{"retro_get_system_info", &c.syms.getSystemInfo},
		{"retro_get_system_av_info", &c.syms.getSystemAVInfo},
		{"retro_set_environment", &c.syms.setEnvironment},
		{"retro_set_video_refresh", &c.syms.setVideoRefresh},
		{"retro_set_audio_sample", &c.syms.setAudioSample},
		{"retro_set_audio_sample_batch", &c.syms.setAudioSampleBatch},
		{"retro_set_input_poll", &c.syms.setInputPoll},
		{"retro_set_input_state", &c.syms.setInputState},
		{"retro_run", &c.syms.run},
		{"retro_load_game", &c.syms.loadGame},
		{"retro_unload_game", &c.syms.unloadGame},
	} {
		nameCstr := C.CString(s.name)
		ptr := C.dlsym(c.handle, nameCstr)
		C.free(unsafe.Pointer(nameCstr))
		if ptr == nil {
			return fmt.Errorf("core %s is missing symbol %s", c.path, s.name)
		}
		*s.dst = ptr
	}
	return nil
}

func (c *Core) Path() string {
	return c.path
}

func (c *Core) SetCallbacks(cb retro.Callbacks) {
	activeMu.Lock()
	c.cb = cb
	activeMu.Unlock()

	C.retroglue_call_set_environment(c.syms.setEnvironment, C.retroglue_environment_ptr())
	C.retroglue_call_set_video_refresh(c.syms.setVideoRefresh, C.retroglue_video_refresh_ptr())
	C.retroglue_call_set_audio_sample(c.syms.setAudioSample, C.retroglue_audio_sample_ptr())
	C.retroglue_call_set_audio_sample_batch(c.syms.setAudioSampleBatch, C.retroglue_audio_sample_batch_ptr())
	C.retroglue_call_set_input_poll(c.syms.setInputPoll, C.retroglue_input_poll_ptr())
	C.retroglue_call_set_input_state(c.syms.setInputState, C.retroglue_input_state_ptr())
}

func (c *Core) APIVersion() uint {
	return uint(C.retroglue_call_api_version(c.syms.apiVersion))
}

func (c *Core) SystemInfo() retro.SystemInfo {
	var si C.struct_retro_system_info
	C.retroglue_call_get_system_info(c.syms.getSystemInfo, &si)

	var exts []string
	if si.valid_extensions != nil {
		for _, ext := range strings.Split(C.GoString(si.valid_extensions), "|") {
			if ext != "" {
				exts = append(exts, "."+strings.ToLower(ext))
			}
		}
	}

	return retro.SystemInfo{
		LibraryName:     C.GoString(si.library_name),
		LibraryVersion:  C.GoString(si.library_version),
		ValidExtensions: exts,
		NeedFullpath:    bool(si.need_fullpath),
		BlockExtract:    bool(si.block_extract),
	}
}

func (c *Core) SystemAVInfo() retro.SystemAVInfo {
	var av C.struct_retro_system_av_info
	C.retroglue_call_get_system_av_info(c.syms.getSystemAVInfo, &av)
	return retro.SystemAVInfo{
		Geometry: retro.GameGeometry{
			BaseWidth:   int(av.geometry.base_width),
			BaseHeight:  int(av.geometry.base_height),
			MaxWidth:    int(av.geometry.max_width),
			MaxHeight:   int(av.geometry.max_height),
			AspectRatio: float32(av.geometry.aspect_ratio),
		},
		Timing: retro.SystemTiming{
			FPS:        float64(av.timing.fps),
			SampleRate: float64(av.timing.sample_rate),
		},
	}
}

func (c *Core) Init() {
	C.retroglue_call_void(c.syms.init)
}

func (c *Core) Deinit() {
	C.retroglue_call_void(c.syms.deinit)
}

func (c *Core) LoadGame(game retro.GameInfo) bool {
	c.freeGameInfo()

	gi := (*C.struct_retro_game_info)(C.calloc(1, C.size_t(unsafe.Sizeof(C.struct_retro_game_info{}))))
	if game.Path != "" {
		gi.path = C.CString(game.Path)
	}
	if len(game.Data) > 0 {
		gi.data = C.CBytes(game.Data)
		gi.size = C.size_t(len(game.Data))
	}
	if game.Meta != "" {
		gi.meta = C.CString(game.Meta)
	}
	c.gameInfo = gi

	if !C.retroglue_call_load_game(c.syms.loadGame, gi) {
		c.freeGameInfo()
		return false
	}
	return true
}

func (c *Core) UnloadGame() {
	C.retroglue_call_void(c.syms.unloadGame)
	c.freeGameInfo()
}

func (c *Core) Run() {
	C.retroglue_call_void(c.syms.run)
}

func (c *Core) freeGameInfo() {
	gi := c.gameInfo
	if gi == nil {
		return
	}
	C.free(unsafe.Pointer(gi.path))
	C.free(unsafe.Pointer(gi.data))
	C.free(unsafe.Pointer(gi.meta))
	C.free(unsafe.Pointer(gi))
	c.gameInfo = nil
}

// Close unloads the shared object. The core must already be deinitialized.
func (c *Core) Close() error {
	if c.handle == nil {
		return nil
	}
	c.freeGameInfo()

	activeMu.Lock()
	if active == c {
		active = nil
	}
	activeMu.Unlock()

	handle := c.handle
	c.handle = nil
	if C.dlclose(handle) != 0 {
		return fmt.Errorf("could not close core %s: %s", c.path, C.GoString(C.retroglue_dlerror()))
	}
	return nil
}
