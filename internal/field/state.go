package field

import (
	"errors"
	"fmt"
)

// State is the single-pass lifecycle of a BoxField.
type State int

const (
	StateConfigured State = iota
	StateTopologyBuilt
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateTopologyBuilt:
		return "topology-built"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var ErrInvalidState = errors.New("invalid state transition")

func (b *BoxField) transition(from, to State) error {
	if b.state != from {
		return fmt.Errorf("%w: %s -> %s while %s", ErrInvalidState, from, to, b.state)
	}
	b.state = to
	b.Log.WithField("state", to.String()).Debug("state change")
	return nil
}
