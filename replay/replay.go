// Package replay records the controller state a session was driven with, step by step, so
// the session can be played back against the same core and ROM.
package replay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/klauspost/compress/zstd"
	"github.com/murkland/retroglue/joypad"
)

var ErrInvalidFormat = errors.New("invalid replay format")

type Step struct {
	Index uint32
	Input joypad.Snapshot
}

type Replay struct {
	CoreName string
	ROMName  string
	Steps    []Step
}

// Marshaled replay format is zstd compressed:
//
// header:
// u8[4]: RGLU
// u8: replay version
// u8: core name size
// core name size: core name
// u8: rom name size
// rom name size: rom name
//
// steps:
// u32: step index
// u8: joyflags, one bit per button in canonical order
func Unmarshal(r io.Reader) (*Replay, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var header [4]byte
	if _, err := io.ReadFull(zr, header[:]); err != nil {
		return nil, err
	}
	if string(header[:]) != replayHeader {
		return nil, ErrInvalidFormat
	}

	var version uint8
	if err := binary.Read(zr, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != replayVersion {
		return nil, fmt.Errorf("%w: unsupported version %02x vs %02x", ErrInvalidFormat, version, replayVersion)
	}

	coreName, err := readString(zr)
	if err != nil {
		return nil, err
	}
	romName, err := readString(zr)
	if err != nil {
		return nil, err
	}

	var steps []Step
	for {
		var index uint32
		if err := binary.Read(zr, binary.LittleEndian, &index); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				log.Printf("replay was truncated")
				break
			}
			return nil, err
		}

		var joyflags uint8
		if err := binary.Read(zr, binary.LittleEndian, &joyflags); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				log.Printf("replay was truncated")
				break
			}
			return nil, err
		}

		steps = append(steps, Step{Index: index, Input: joypad.SnapshotFromJoyflags(joyflags)})
	}

	return &Replay{
		CoreName: coreName,
		ROMName:  romName,
		Steps:    steps,
	}, nil
}

func readString(r io.Reader) (string, error) {
	var n uint8
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, int(n))
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Player feeds a replay's inputs back one step at a time.
type Player struct {
	replay *Replay
	next   int
}

func NewPlayer(replay *Replay) *Player {
	return &Player{replay: replay}
}

// Input returns the input recorded for step, or for the closest earlier recorded step.
// Calls must not go backwards. ok is false past the end of the recording.
func (p *Player) Input(step uint32) (input joypad.Snapshot, ok bool) {
	steps := p.replay.Steps
	if len(steps) == 0 || step > steps[len(steps)-1].Index {
		return joypad.Snapshot{}, false
	}
	for p.next < len(steps) && steps[p.next].Index <= step {
		p.next++
	}
	if p.next == 0 {
		return joypad.Snapshot{}, true
	}
	return steps[p.next-1].Input, true
}
