package bus

import "errors"

var (
	// ErrInvalidBaudRate indicates a zero baud rate or one faster than
	// a microsecond bit time.
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	// ErrPinConflict indicates two transceiver lines share a pin.
	ErrPinConflict = errors.New("transceiver pins must be distinct")
)
