package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/murkland/retroglue/av"
	"github.com/murkland/retroglue/game"
	"github.com/murkland/retroglue/input"
	"github.com/murkland/retroglue/joypad"
	"github.com/murkland/retroglue/libretro"
	"github.com/murkland/retroglue/replay"
)

var (
	corePath = flag.String("core_path", "", "path to libretro core")
	romPath  = flag.String("rom_path", "", "path to rom")
	outPath  = flag.String("out_path", "replay.png", "where to write the last frame")
)

func main() {
	flag.Parse()

	replayName := flag.Arg(0)
	f, err := os.Open(replayName)
	if err != nil {
		log.Fatalf("failed to open replay: %s", err)
	}
	r, err := replay.Unmarshal(f)
	f.Close()
	if err != nil {
		log.Fatalf("failed to read replay: %s", err)
	}
	if len(r.Steps) == 0 {
		log.Fatalf("replay has no steps")
	}

	core, err := libretro.Open(*corePath)
	if err != nil {
		log.Fatalf("failed to open core: %s", err)
	}
	if info := core.SystemInfo(); info.LibraryName != r.CoreName {
		log.Printf("replay was recorded with %s, playing back with %s", r.CoreName, info.LibraryName)
	}
	if filepath.Base(*romPath) != r.ROMName {
		log.Printf("replay was recorded on %s, playing back on %s", r.ROMName, filepath.Base(*romPath))
	}

	state := joypad.NewState()
	sink := av.NewSink(av.FormatXRGB8888)
	router := input.NewRouter(state, input.DefaultKeyMapping(), input.DefaultBindings(), ebiten.KeyEscape)

	session := game.NewSession(core, *romPath, state, sink, router, game.Options{
		Unpaced:  true,
		MaxSteps: uint64(r.Steps[len(r.Steps)-1].Index) + 1,
		Playback: replay.NewPlayer(r),
	})
	if err := session.Run(context.Background()); err != nil {
		log.Fatalf("failed to play back replay: %s", err)
	}

	stats := session.Stats()
	fmt.Fprintf(os.Stdout, "steps: %d, frames: %d, bad frames: %d, median step: %s\n", stats.Steps, stats.Frames, stats.CallbackFaults, stats.MedianStepTime)

	frame, ok := sink.Latest()
	if !ok {
		log.Fatalf("core produced no frames")
	}
	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create output: %s", err)
	}
	defer out.Close()
	if err := png.Encode(out, frame.Image()); err != nil {
		log.Fatalf("failed to write frame: %s", err)
	}
}
