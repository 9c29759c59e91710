package game

import (
	"context"
	"errors"
	"image/color"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/murkland/retroglue/av"
	"github.com/murkland/retroglue/config"
	"github.com/murkland/retroglue/input"
)

// Game shows a session in an ebiten window and feeds the window's keyboard to it.
type Game struct {
	conf config.Config

	session *Session
	source  *input.EbitenSource
	sink    *av.Sink

	fbuf    *ebiten.Image
	lastSeq uint64

	done    chan struct{}
	errMu   sync.Mutex
	err     error
	started bool
}

func New(conf config.Config, session *Session, source *input.EbitenSource, sink *av.Sink) *Game {
	return &Game{
		conf:    conf,
		session: session,
		source:  source,
		sink:    sink,
		done:    make(chan struct{}),
	}
}

// RunBackgroundTasks runs the session. The window closes when it returns.
func (g *Game) RunBackgroundTasks(ctx context.Context) error {
	defer close(g.done)
	err := g.session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	g.errMu.Lock()
	g.err = err
	g.errMu.Unlock()
	return err
}

// Err is the error the session ended with, if any.
func (g *Game) Err() error {
	g.errMu.Lock()
	defer g.errMu.Unlock()
	return g.err
}

func (g *Game) Update() error {
	select {
	case <-g.done:
		return ebiten.Termination
	default:
	}

	select {
	case <-g.session.Ready():
		if !g.started {
			g.started = true
			geom := g.session.SystemAVInfo().Geometry
			if geom.BaseWidth > 0 && geom.BaseHeight > 0 {
				scale := g.conf.Video.Scale
				if scale < 1 {
					scale = 1
				}
				ebiten.SetWindowSize(geom.BaseWidth*scale, geom.BaseHeight*scale)
			}
			if fps := g.session.SystemAVInfo().Timing.FPS; fps > 0 {
				ebiten.SetTPS(int(fps + 0.5))
			}
		}
	default:
	}

	g.source.Poll()

	f, ok := g.sink.Latest()
	if !ok {
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		path, err := saveScreenshot(g.conf.Video.ScreenshotDir, f, g.conf.Video.Scale)
		if err != nil {
			log.Printf("failed to save screenshot: %s", err)
		} else {
			log.Printf("saved screenshot to %s", path)
		}
	}

	if f.Sequence() == g.lastSeq {
		return nil
	}
	g.lastSeq = f.Sequence()

	if g.fbuf == nil || g.fbuf.Bounds().Dx() != f.Width() || g.fbuf.Bounds().Dy() != f.Height() {
		g.fbuf = ebiten.NewImage(f.Width(), f.Height())
	}
	g.fbuf.WritePixels(f.Image().Pix)

	return nil
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	if g.fbuf != nil {
		return g.fbuf.Bounds().Dx(), g.fbuf.Bounds().Dy()
	}
	geom := g.session.SystemAVInfo().Geometry
	if geom.BaseWidth > 0 && geom.BaseHeight > 0 {
		return geom.BaseWidth, geom.BaseHeight
	}
	return outsideWidth, outsideHeight
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.fbuf == nil {
		screen.Fill(color.Black)
		return
	}
	opts := &ebiten.DrawImageOptions{}
	screen.DrawImage(g.fbuf, opts)
}
