package link

import (
	"errors"
	"fmt"

	"github.com/robotalks/hdlc485/pkg/hdlc"
)

var (
	// ErrNotInitialized indicates Initialize hasn't been called.
	ErrNotInitialized = errors.New("station not initialized")
	// ErrTimeout indicates no frame completed within the timeout.
	ErrTimeout = errors.New("timeout")
	// ErrShortReply indicates a reply without address and control.
	ErrShortReply = errors.New("short reply")
	// ErrCorrupted indicates a reply failing its CRC check.
	ErrCorrupted = errors.New("reply failed CRC check")
	// ErrRejected indicates the peer answered with REJ.
	ErrRejected = errors.New("rejected")
)

// ControlError reports an unexpected control byte in a reply.
type ControlError struct {
	Control byte
}

// Error implements error.
func (e *ControlError) Error() string {
	return "unexpected control " + hdlc.ControlString(e.Control)
}

// AddressError reports a reply from an unexpected station.
type AddressError struct {
	Want byte
	Got  byte
}

// Error implements error.
func (e *AddressError) Error() string {
	return fmt.Sprintf("reply from address %02X, want %02X", e.Got, e.Want)
}

// SequenceError reports an RR acknowledging another frame.
type SequenceError struct {
	Want hdlc.Seq
	Got  hdlc.Seq
}

// Error implements error.
func (e *SequenceError) Error() string {
	return fmt.Sprintf("acknowledged %d, want %d", e.Got, e.Want)
}
