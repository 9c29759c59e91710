package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/murkland/retroglue/replay"
)

var (
	changesOnly = flag.Bool("changes_only", false, "only print steps where the input changed")
)

func main() {
	flag.Parse()

	replayName := flag.Arg(0)
	f, err := os.Open(replayName)
	if err != nil {
		log.Fatalf("failed to open replay: %s", err)
	}
	defer f.Close()

	r, err := replay.Unmarshal(f)
	if err != nil {
		log.Fatalf("failed to read replay: %s", err)
	}

	fmt.Fprintf(os.Stdout, "core: %s\n", r.CoreName)
	fmt.Fprintf(os.Stdout, "rom: %s\n", r.ROMName)
	fmt.Fprintf(os.Stdout, "steps: %d\n", len(r.Steps))

	for i, step := range r.Steps {
		if *changesOnly && i > 0 && r.Steps[i-1].Input == step.Input {
			continue
		}
		fmt.Fprintf(os.Stdout, "%d: joyflags=%02x %s\n", step.Index, step.Input.Joyflags(), step.Input)
	}
}
