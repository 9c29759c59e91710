package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitenSource forwards keyboard edges seen by the window to a Router. Poll must be called
// from the game's Update.
type EbitenSource struct {
	router *Router
	keys   []ebiten.Key
}

func NewEbitenSource(router *Router) *EbitenSource {
	return &EbitenSource{router: router}
}

func (s *EbitenSource) Poll() {
	s.keys = inpututil.AppendJustReleasedKeys(s.keys[:0])
	for _, key := range s.keys {
		s.router.Enqueue(Event{Key: key, Down: false})
	}

	s.keys = inpututil.AppendJustPressedKeys(s.keys[:0])
	for _, key := range s.keys {
		s.router.Enqueue(Event{Key: key, Down: true})
	}
}
