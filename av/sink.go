package av

import (
	"errors"
	"fmt"
	"sync"
)

var ErrMalformedFrame = errors.New("malformed video frame")

// Sink keeps the most recent complete frame. Publish is called from the emulation
// goroutine; Latest may be called from anywhere.
type Sink struct {
	format Format

	mu     sync.Mutex
	latest *Frame
	seq    uint64
}

func NewSink(format Format) *Sink {
	return &Sink{format: format}
}

func (s *Sink) Format() Format {
	return s.format
}

// Publish copies the first width*bpp bytes of each of height rows from buf, whose rows
// are stride bytes apart. buf is not retained. On error the latest frame is unchanged.
func (s *Sink) Publish(buf []byte, width int, height int, stride int) (*Frame, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrMalformedFrame)
	}
	if width <= 0 || height <= 0 || stride <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d stride=%d", ErrMalformedFrame, width, height, stride)
	}

	rowBytes := width * s.format.BytesPerPixel()
	if stride < rowBytes {
		return nil, fmt.Errorf("%w: stride %d shorter than row %d", ErrMalformedFrame, stride, rowBytes)
	}

	need := (height-1)*stride + rowBytes
	if len(buf) < need {
		return nil, fmt.Errorf("%w: buffer has %d bytes, need %d", ErrMalformedFrame, len(buf), need)
	}

	pix := make([]byte, rowBytes*height)
	for y := 0; y < height; y++ {
		copy(pix[y*rowBytes:(y+1)*rowBytes], buf[y*stride:y*stride+rowBytes])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	f := &Frame{
		width:  width,
		height: height,
		stride: rowBytes,
		format: s.format,
		seq:    s.seq,
		pix:    pix,
	}
	s.latest = f
	return f, nil
}

func (s *Sink) Latest() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latest != nil
}

// Sequence returns how many frames have been published.
func (s *Sink) Sequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}
