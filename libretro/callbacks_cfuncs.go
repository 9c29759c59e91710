package libretro

/*
#include <stdint.h>
#include <stddef.h>
#include <stdbool.h>
*/
import "C"
import (
	"unsafe"

	"github.com/murkland/retroglue/retro"
)

// hwFrameBufferValid is RETRO_HW_FRAME_BUFFER_VALID.
const hwFrameBufferValid = ^uintptr(0)

//export retroglue_cgo_environment
func retroglue_cgo_environment(cmd C.uint, data unsafe.Pointer) C.bool {
	cb := activeCallbacks()
	if cb == nil {
		return C.bool(false)
	}
	return C.bool(cb.Environment(uint(cmd), data))
}

//export retroglue_cgo_video_refresh
func retroglue_cgo_video_refresh(data unsafe.Pointer, width C.uint, height C.uint, pitch C.size_t) {
	cb := activeCallbacks()
	if cb == nil {
		return
	}

	w, h, p := int(width), int(height), int(pitch)
	if data == nil || uintptr(data) == hwFrameBufferValid || w == 0 || h == 0 || p == 0 {
		cb.VideoRefresh(nil, w, h, p)
		return
	}

	// Never view past the last pixel of the last row: the core owns this memory.
	n := p * h
	if row := w * retro.BytesPerPixel; p >= row {
		n = p*(h-1) + row
	}
	cb.VideoRefresh(unsafe.Slice((*byte)(data), n), w, h, p)
}

//export retroglue_cgo_audio_sample
func retroglue_cgo_audio_sample(left C.int16_t, right C.int16_t) {
	cb := activeCallbacks()
	if cb == nil {
		return
	}
	cb.AudioSample(int16(left), int16(right))
}

//export retroglue_cgo_audio_sample_batch
func retroglue_cgo_audio_sample_batch(data *C.int16_t, frames C.size_t) C.size_t {
	cb := activeCallbacks()
	if cb == nil {
		return frames
	}
	var buf []int16
	if data != nil && frames > 0 {
		buf = unsafe.Slice((*int16)(unsafe.Pointer(data)), int(frames)*2)
	}
	return C.size_t(cb.AudioSampleBatch(buf, int(frames)))
}

//export retroglue_cgo_input_poll
func retroglue_cgo_input_poll() {
	cb := activeCallbacks()
	if cb == nil {
		return
	}
	cb.InputPoll()
}

//export retroglue_cgo_input_state
func retroglue_cgo_input_state(port C.uint, device C.uint, index C.uint, id C.uint) C.int16_t {
	cb := activeCallbacks()
	if cb == nil {
		return 0
	}
	return C.int16_t(cb.InputState(uint(port), uint(device), uint(index), uint(id)))
}
