// Package retro describes the libretro plugin boundary without depending on cgo.
//
// A Core is the opaque emulator plugin. The host hands it a Callbacks implementation
// before Init; the core calls back into it from inside Run. Any slice passed to a
// callback aliases plugin-owned memory and is only valid until the callback returns.
package retro

import "unsafe"

// APIVersion is RETRO_API_VERSION.
const APIVersion = 1

// Input devices (RETRO_DEVICE_*).
const (
	DeviceNone     = 0
	DeviceJoypad   = 1
	DeviceMouse    = 2
	DeviceKeyboard = 3
	DeviceLightgun = 4
	DeviceAnalog   = 5
	DevicePointer  = 6
)

// Joypad button ids (RETRO_DEVICE_ID_JOYPAD_*).
const (
	JoypadB      = 0
	JoypadY      = 1
	JoypadSelect = 2
	JoypadStart  = 3
	JoypadUp     = 4
	JoypadDown   = 5
	JoypadLeft   = 6
	JoypadRight  = 7
	JoypadA      = 8
	JoypadX      = 9
	JoypadL      = 10
	JoypadR      = 11
	JoypadL2     = 12
	JoypadR2     = 13
	JoypadL3     = 14
	JoypadR3     = 15
)

// Environment commands the host is likely to see. The host answers all of them false.
const (
	EnvironmentSetRotation           = 1
	EnvironmentGetOverscan           = 2
	EnvironmentGetCanDupe            = 3
	EnvironmentSetMessage            = 6
	EnvironmentShutdown              = 7
	EnvironmentSetPerformanceLevel   = 8
	EnvironmentGetSystemDirectory    = 9
	EnvironmentSetPixelFormat        = 10
	EnvironmentSetInputDescriptors   = 11
	EnvironmentGetVariable           = 15
	EnvironmentSetVariables          = 16
	EnvironmentGetVariableUpdate     = 17
	EnvironmentSetSupportNoGame      = 18
	EnvironmentGetLogInterface       = 27
	EnvironmentGetCoreAssetsDir      = 30
	EnvironmentGetSaveDirectory      = 31
	EnvironmentSetSystemAVInfo       = 32
	EnvironmentSetControllerInfo     = 35
	EnvironmentSetGeometry           = 37
	EnvironmentGetLanguage           = 39
	EnvironmentGetInputBitmasks      = 51
	EnvironmentGetCoreOptionsVersion = 52
)

type PixelFormat int

const (
	PixelFormat0RGB1555 PixelFormat = 0
	PixelFormatXRGB8888 PixelFormat = 1
	PixelFormatRGB565   PixelFormat = 2
)

// BytesPerPixel is fixed: pixel format negotiation is not implemented, every frame is
// read as XRGB8888.
const BytesPerPixel = 4

type GameInfo struct {
	Path string
	Data []byte
	Meta string
}

type SystemInfo struct {
	LibraryName     string
	LibraryVersion  string
	ValidExtensions []string
	NeedFullpath    bool
	BlockExtract    bool
}

type GameGeometry struct {
	BaseWidth   int
	BaseHeight  int
	MaxWidth    int
	MaxHeight   int
	AspectRatio float32
}

type SystemTiming struct {
	FPS        float64
	SampleRate float64
}

type SystemAVInfo struct {
	Geometry GameGeometry
	Timing   SystemTiming
}

// Callbacks is what a host implements to receive calls from a running core.
type Callbacks interface {
	// Environment answers a core query. data points at command-specific memory.
	Environment(cmd uint, data unsafe.Pointer) bool
	// VideoRefresh delivers a frame. buf is nil for a duplicate or hardware frame.
	VideoRefresh(buf []byte, width int, height int, pitch int)
	AudioSample(left int16, right int16)
	// AudioSampleBatch receives interleaved stereo frames and returns how many it took.
	AudioSampleBatch(buf []int16, frames int) int
	InputPoll()
	InputState(port uint, device uint, index uint, id uint) int16
}

// Core is a loaded plugin. Implementations are not goroutine-safe; drive a Core from a
// single OS thread.
type Core interface {
	// SetCallbacks must be called before Init.
	SetCallbacks(cb Callbacks)
	APIVersion() uint
	SystemInfo() SystemInfo
	SystemAVInfo() SystemAVInfo
	Init()
	Deinit()
	LoadGame(game GameInfo) bool
	UnloadGame()
	Run()
	// Close releases the plugin itself.
	Close() error
}
