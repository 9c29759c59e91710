package joypad

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Snapshot is a full copy of every button flag. It is a value type: copies never alias.
type Snapshot [NumButtons]bool

func (s Snapshot) Pressed(b Button) bool {
	if !b.Valid() {
		return false
	}
	return s[b]
}

// With returns a copy of s with b set to pressed.
func (s Snapshot) With(b Button, pressed bool) Snapshot {
	if b.Valid() {
		s[b] = pressed
	}
	return s
}

// Map returns the exchange form of the snapshot: exactly the eight button names.
func (s Snapshot) Map() map[string]bool {
	m := make(map[string]bool, NumButtons)
	for _, b := range Buttons {
		m[b.String()] = s[b]
	}
	return m
}

// Joyflags packs the snapshot into one bit per button, in canonical order.
func (s Snapshot) Joyflags() uint8 {
	var flags uint8
	for _, b := range Buttons {
		if s[b] {
			flags |= 1 << uint(b)
		}
	}
	return flags
}

func SnapshotFromJoyflags(flags uint8) Snapshot {
	var s Snapshot
	for _, b := range Buttons {
		s[b] = flags&(1<<uint(b)) != 0
	}
	return s
}

func (s Snapshot) String() string {
	var pressed []string
	for _, b := range Buttons {
		if s[b] {
			pressed = append(pressed, b.String())
		}
	}
	return "[" + strings.Join(pressed, " ") + "]"
}

// ErrMalformedSnapshot is the kind of every error returned for an external snapshot that
// does not match the eight-button schema. Such errors are reports: the snapshot was still
// applied with missing buttons released and unknown keys dropped.
var ErrMalformedSnapshot = errors.New("malformed controller snapshot")

type SnapshotError struct {
	Missing []string
	Unknown []string
}

func (e *SnapshotError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %s (defaulted to released)", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown %s (ignored)", strings.Join(e.Unknown, ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrMalformedSnapshot, strings.Join(parts, "; "))
}

func (e *SnapshotError) Unwrap() error {
	return ErrMalformedSnapshot
}

// FromMap converts an external snapshot. Missing buttons come back released and unknown
// keys are dropped; both are listed in the returned *SnapshotError, which is nil for a
// well-formed snapshot. The returned Snapshot is always usable.
func FromMap(m map[string]bool) (Snapshot, error) {
	var s Snapshot
	var serr SnapshotError
	for _, b := range Buttons {
		v, ok := m[b.String()]
		if !ok {
			serr.Missing = append(serr.Missing, b.String())
			continue
		}
		s[b] = v
	}
	for k := range m {
		if !isButtonName(k) {
			serr.Unknown = append(serr.Unknown, k)
		}
	}
	if len(serr.Missing) == 0 && len(serr.Unknown) == 0 {
		return s, nil
	}
	sort.Strings(serr.Unknown)
	return s, &serr
}

// isButtonName is exact: exchange keys are upper case.
func isButtonName(name string) bool {
	for _, n := range buttonNames {
		if n == name {
			return true
		}
	}
	return false
}
