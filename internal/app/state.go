package app

import (
	"errors"
	"fmt"
)

// State is the detection loop's lifecycle position.
type State int32

const (
	StateUninitialized State = iota
	StateCameraAcquiring
	StateModelLoading
	StateRunning
	StateStopped
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("detection loop already started")

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCameraAcquiring:
		return "camera_acquiring"
	case StateModelLoading:
		return "model_loading"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for c := StateUninitialized; c <= StateStopped; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown loop state %q", b)
}
