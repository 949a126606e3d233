package bridge

import (
	"errors"
	"fmt"
)

// ErrNoLink indicates the gateway was added to a loop without a link.
var ErrNoLink = errors.New("no link")

// DirectionError indicates a decoded record carries an unknown direction.
type DirectionError struct {
	Direction Direction
}

func (e *DirectionError) Error() string {
	return fmt.Sprintf("invalid direction %d", int32(e.Direction))
}
