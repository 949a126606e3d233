package hdlc

import "errors"

var (
	// ErrEmptyInput indicates nothing was given to encode or decode.
	ErrEmptyInput = errors.New("empty input")
	// ErrCapacity indicates the destination can't hold the whole output.
	// Nothing is written when this is returned.
	ErrCapacity = errors.New("insufficient capacity")
	// ErrFrameTooLarge indicates the frame exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrShortFrame indicates a frame without address and control.
	ErrShortFrame = errors.New("frame too short")
	// ErrOddHexDigits indicates a hex string with an unpaired digit.
	ErrOddHexDigits = errors.New("odd number of hex digits")
)
