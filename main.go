package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/murkland/retroglue/av"
	"github.com/murkland/retroglue/config"
	"github.com/murkland/retroglue/game"
	"github.com/murkland/retroglue/input"
	"github.com/murkland/retroglue/joypad"
	"github.com/murkland/retroglue/libretro"
	"github.com/murkland/retroglue/replay"
	"github.com/murkland/retroglue/retro"
	"github.com/murkland/retroglue/rom"
	"github.com/ncruces/zenity"
	"golang.org/x/exp/maps"
)

var (
	logFile      = flag.String("log_file", "retroglue.log", "file to log to")
	configPath   = flag.String("config_path", "retroglue.toml", "path to config")
	corePath     = flag.String("core_path", "", "path to libretro core, overrides config")
	romPath      = flag.String("rom_path", "", "path to rom to start immediately")
	playbackPath = flag.String("playback_path", "", "path to a replay to play back")
	noRecord     = flag.Bool("no_record", false, "do not record a replay")
	statsView    = flag.Bool("statsview", false, "serve runtime statistics on "+statsViewAddr)
)

var version string

func main() {
	flag.Parse()

	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			log.Fatalf("failed to open log file: %s", err)
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	conf := loadConfig(*configPath)
	log.Printf("config settings: %+v", conf)
	log.Printf("welcome to retroglue %s", version)

	if *corePath != "" {
		conf.Core.Path = *corePath
	}

	if *statsView {
		launchStatsView()
	}

	core, err := libretro.Open(conf.Core.Path)
	if err != nil {
		log.Fatalf("failed to open core: %s", err)
	}

	if *romPath == "" {
		*romPath, err = selectROM(conf.ROM.Dir, core.SystemInfo())
		if err != nil {
			log.Fatalf("failed to select rom: %s", err)
		}
	}
	log.Printf("loading rom: %s", *romPath)

	bindings, err := conf.Keymapping.ButtonBindings()
	if err != nil {
		log.Fatalf("bad key bindings: %s", err)
	}
	aliases, err := conf.Keymapping.KeyAliases()
	if err != nil {
		log.Fatalf("bad key aliases: %s", err)
	}
	keymapping := input.DefaultKeyMapping()
	for key, name := range aliases {
		keymapping.Alias(key, name)
	}

	state := joypad.NewState()
	sink := av.NewSink(av.FormatXRGB8888)
	router := input.NewRouter(state, keymapping, bindings, ebiten.Key(conf.Keymapping.Cancel))

	opts := game.Options{FPSOverride: conf.Core.FPSOverride}
	if *playbackPath != "" {
		r, err := loadReplay(*playbackPath)
		if err != nil {
			log.Fatalf("failed to load replay: %s", err)
		}
		log.Printf("playing back %d steps recorded with %s on %s", len(r.Steps), r.CoreName, r.ROMName)
		opts.Playback = replay.NewPlayer(r)
	} else if conf.Recording.Enabled && !*noRecord {
		opts.OpenRecording = func(info retro.SystemInfo) (*replay.Writer, error) {
			return newRecording(conf.Recording.Dir, info, *romPath)
		}
	}

	session := game.NewSession(core, *romPath, state, sink, router, opts)
	g := game.New(conf, session, input.NewEbitenSource(router), sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := g.RunBackgroundTasks(ctx); err != nil {
			log.Printf("session ended: %s", err)
		}
	}()

	ebiten.SetWindowTitle(fmt.Sprintf("retroglue: %s", filepath.Base(*romPath)))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)

	if err := ebiten.RunGame(g); err != nil {
		log.Fatalf("failed to run game: %s", err)
	}

	cancel()
	select {
	case <-session.Done():
	case <-time.After(5 * time.Second):
		log.Printf("session did not stop in time")
	}

	stats := session.Stats()
	log.Printf("ran %d steps, %d frames, %d bad frames, %d input changes, median step %s", stats.Steps, stats.Frames, stats.CallbackFaults, stats.InputChanges, stats.MedianStepTime)

	if err := g.Err(); err != nil {
		log.Fatalf("session failed: %s", err)
	}
}

func loadConfig(path string) config.Config {
	confF, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("failed to open config: %s", err)
		}

		log.Printf("config doesn't exist, making a new one at: %s", path)
		confF, err = os.Create(path)
		if err != nil {
			log.Fatalf("failed to open config: %s", err)
		}
		defer confF.Close()

		conf := config.Default()
		if err := config.Save(conf, confF); err != nil {
			log.Fatalf("failed to save config: %s", err)
		}
		return conf
	}
	defer confF.Close()

	conf, err := config.Load(confF)
	if err != nil {
		log.Fatalf("failed to open config: %s", err)
	}
	return conf
}

func selectROM(dir string, info retro.SystemInfo) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	options := map[string]string{}
	for _, dirent := range dirents {
		if dirent.IsDir() {
			continue
		}
		path := filepath.Join(dir, dirent.Name())
		if info.NeedFullpath {
			options[dirent.Name()] = path
			continue
		}
		_, name, err := rom.Load(path, info.ValidExtensions)
		if err != nil {
			continue
		}
		if name != dirent.Name() {
			options[fmt.Sprintf("%s: %s", dirent.Name(), name)] = path
		} else {
			options[dirent.Name()] = path
		}
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no roms for %s in %s", info.LibraryName, dir)
	}

	keys := maps.Keys(options)
	sort.Strings(keys)

	key, err := zenity.List("Select a game", keys, zenity.Title("retroglue"))
	if err != nil {
		return "", err
	}
	return options[key], nil
}

func loadReplay(path string) (*replay.Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return replay.Unmarshal(f)
}

func newRecording(dir string, info retro.SystemInfo, romPath string) (*replay.Writer, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	romName := filepath.Base(romPath)
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.rglu", time.Now().Format("20060102150405"), romName))
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	log.Printf("recording to %s", filename)

	w, err := replay.NewWriter(f, info.LibraryName, romName)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}
