package av

import (
	"image"
)

type Format int

const (
	// FormatXRGB8888 is 32 bits per pixel, stored little-endian as B, G, R, X.
	FormatXRGB8888 Format = iota
)

func (f Format) BytesPerPixel() int {
	return 4
}

func (f Format) String() string {
	switch f {
	case FormatXRGB8888:
		return "XRGB8888"
	default:
		return "unknown"
	}
}

// Frame is an immutable copy of one video frame. Rows are packed: Stride is always
// Width times the format's bytes per pixel.
type Frame struct {
	width  int
	height int
	stride int
	format Format
	seq    uint64
	pix    []byte
}

func (f *Frame) Width() int {
	return f.width
}

func (f *Frame) Height() int {
	return f.height
}

func (f *Frame) Stride() int {
	return f.stride
}

func (f *Frame) Format() Format {
	return f.format
}

// Sequence is the 1-based publish count of the sink that produced this frame.
func (f *Frame) Sequence() uint64 {
	return f.seq
}

// Pix returns a copy of the packed pixel data.
func (f *Frame) Pix() []byte {
	pix := make([]byte, len(f.pix))
	copy(pix, f.pix)
	return pix
}

// Row returns a copy of row y, or nil if y is out of range.
func (f *Frame) Row(y int) []byte {
	if y < 0 || y >= f.height {
		return nil
	}
	row := make([]byte, f.stride)
	copy(row, f.pix[y*f.stride:(y+1)*f.stride])
	return row
}

// Image converts the frame to RGBA with opaque alpha.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	f.copyRGBA(img.Pix)
	return img
}

// CopyRGBA writes the frame as RGBA into dst, which must hold Width*Height*4 bytes.
func (f *Frame) CopyRGBA(dst []byte) {
	f.copyRGBA(dst)
}

func (f *Frame) copyRGBA(dst []byte) {
	n := f.width * f.height
	if len(dst) < n*4 {
		n = len(dst) / 4
	}
	for i := 0; i < n; i++ {
		src := f.pix[i*4 : i*4+4]
		dst[i*4+0] = src[2]
		dst[i*4+1] = src[1]
		dst[i*4+2] = src[0]
		dst[i*4+3] = 0xff
	}
}
