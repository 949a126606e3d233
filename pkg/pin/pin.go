// Package pin defines the host capabilities the link layer consumes.
package pin

// ID identifies a digital pin on the host board.
type ID uint8

// Mode is the direction of a pin.
type Mode uint8

// Pin modes.
const (
	Input Mode = iota
	Output
)

// Level is a digital logic level.
type Level uint8

// Logic levels.
const (
	Low  Level = 0
	High Level = 1
)

// LevelOf converts a bit (0 or non-zero) to a Level.
func LevelOf(bit byte) Level {
	if bit != 0 {
		return High
	}
	return Low
}

// Bit converts the level to 0 or 1.
func (l Level) Bit() byte {
	if l != Low {
		return 1
	}
	return 0
}

// Digital provides direct pin access.
type Digital interface {
	SetMode(ID, Mode)
	Write(ID, Level)
	Read(ID) Level
}

// Clock provides busy-wait delays and a monotonic clock.
// Both counters wrap around; callers must compare with subtraction.
type Clock interface {
	SleepMicros(us uint32)
	Millis() uint32
	Micros() uint32
}

// Pins is the complete capability set required by the bit transport.
type Pins interface {
	Digital
	Clock
}

// ElapsedMicros returns microseconds passed since start, tolerating wrap-around.
func ElapsedMicros(c Clock, start uint32) uint32 {
	return c.Micros() - start
}

// ElapsedMillis returns milliseconds passed since start, tolerating wrap-around.
func ElapsedMillis(c Clock, start uint32) uint32 {
	return c.Millis() - start
}
