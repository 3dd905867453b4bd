// Package storage persists the transaction collection in a single named slot
// of a durable key-value medium.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrSlotAbsent is returned by Slot.Read when the key was never written.
	ErrSlotAbsent = errors.New("slot absent")

	ErrRead  = errors.New("persistence read failed")
	ErrWrite = errors.New("persistence write failed")
)

// Slot is one key of the medium. Write replaces the whole value in a single
// step; a reader never observes a partial write.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, value []byte) error
}

// State describes what Load found in the slot.
type State int

const (
	StateAbsent State = iota
	StateEmpty
	StateLoaded
	StateCorrupt
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}
