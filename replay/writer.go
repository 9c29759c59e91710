package replay

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/murkland/retroglue/joypad"
)

const replayVersion = 0x01
const replayHeader = "RGLU"

const flushEvery = 60

type Writer struct {
	closer io.Closer
	w      *zstd.Encoder

	unflushed int
	lastStep  uint32
	wrote     bool
}

func NewWriter(wc io.WriteCloser, coreName string, romName string) (*Writer, error) {
	w, err := zstd.NewWriter(wc)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write([]byte(replayHeader)); err != nil {
		return nil, err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(replayVersion)); err != nil {
		return nil, err
	}
	if err := writeString(w, coreName); err != nil {
		return nil, err
	}
	if err := writeString(w, romName); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}

	return &Writer{closer: wc, w: w}, nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > 0xff {
		s = s[:0xff]
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// Write records the input a step ran with. Steps must be written in increasing order.
func (rw *Writer) Write(step uint32, input joypad.Snapshot) error {
	if rw.wrote && step <= rw.lastStep {
		return fmt.Errorf("step %d written after step %d", step, rw.lastStep)
	}

	if err := binary.Write(rw.w, binary.LittleEndian, step); err != nil {
		return err
	}
	if err := binary.Write(rw.w, binary.LittleEndian, input.Joyflags()); err != nil {
		return err
	}
	rw.lastStep = step
	rw.wrote = true

	rw.unflushed++
	if rw.unflushed >= flushEvery {
		rw.unflushed = 0
		if err := rw.w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (rw *Writer) Close() error {
	if err := rw.w.Close(); err != nil {
		return err
	}
	if err := rw.closer.Close(); err != nil {
		return err
	}
	return nil
}
