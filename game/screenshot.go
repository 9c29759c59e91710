package game

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/murkland/retroglue/av"
	"golang.org/x/image/draw"
)

func scaleFrame(f *av.Frame, scale int) *image.RGBA {
	src := f.Image()
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx()*scale, src.Bounds().Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func saveScreenshot(dir string, f *av.Frame, scale int) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%06d.png", time.Now().Format("20060102150405"), f.Sequence()))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := png.Encode(out, scaleFrame(f, scale)); err != nil {
		return "", err
	}
	return path, out.Close()
}
