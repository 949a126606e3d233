// Package bus drives a half-duplex RS-485 transceiver one bit at a time.
package bus

import (
	"github.com/robotalks/hdlc485/pkg/pin"
)

// MaxBaudRate is the fastest rate with a whole-microsecond half-bit time.
const MaxBaudRate = 500000

// Config describes how the transceiver is wired.
type Config struct {
	TX       pin.ID // data out (DI)
	RX       pin.ID // data in (RO)
	DE       pin.ID // driver enable, active high
	RE       pin.ID // receiver enable, active low
	BaudRate uint32
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.BaudRate == 0 || c.BaudRate > MaxBaudRate {
		return ErrInvalidBaudRate
	}
	ids := []pin.ID{c.TX, c.RX, c.DE, c.RE}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if ids[i] == ids[j] {
				return ErrPinConflict
			}
		}
	}
	return nil
}

// BitSequence is a read-only sequence of bits.
type BitSequence interface {
	Len() int
	At(i int) byte
}

// Driver provides the bit level primitives of the link.
type Driver struct {
	pins pin.Pins
	conf Config

	bitTime     uint32
	halfBitTime uint32

	initialized  bool
	transmitting bool
}

// NewDriver creates a Driver.
func NewDriver(pins pin.Pins, conf Config) (*Driver, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	bitTime := uint32(1000000) / conf.BaudRate
	return &Driver{
		pins:        pins,
		conf:        conf,
		bitTime:     bitTime,
		halfBitTime: bitTime / 2,
	}, nil
}

// Initialize configures the pins and leaves the transceiver receiving.
// Calling it again does nothing.
func (d *Driver) Initialize() {
	if d.initialized {
		return
	}
	d.pins.SetMode(d.conf.TX, pin.Output)
	d.pins.SetMode(d.conf.RX, pin.Input)
	d.pins.SetMode(d.conf.DE, pin.Output)
	d.pins.SetMode(d.conf.RE, pin.Output)
	d.pins.Write(d.conf.TX, pin.High)
	d.EnableReceive()
	d.initialized = true
}

// Initialized reports whether Initialize has run.
func (d *Driver) Initialized() bool {
	return d.initialized
}

// Config returns the wiring.
func (d *Driver) Config() Config {
	return d.conf
}

// Pins returns the underlying pins.
func (d *Driver) Pins() pin.Pins {
	return d.pins
}

// Clock exposes the clock of the underlying pins.
func (d *Driver) Clock() pin.Clock {
	return d.pins
}

// BitTime returns the duration of one bit in microseconds.
func (d *Driver) BitTime() uint32 {
	return d.bitTime
}

// HalfBitTime returns half of BitTime.
func (d *Driver) HalfBitTime() uint32 {
	return d.halfBitTime
}

// IsTransmitting reports whether the line driver is enabled.
func (d *Driver) IsTransmitting() bool {
	return d.transmitting
}

// EnableTransmit turns the driver on and the receiver off, then waits
// half a bit for the line to settle.
func (d *Driver) EnableTransmit() {
	d.pins.Write(d.conf.DE, pin.High)
	d.pins.Write(d.conf.RE, pin.High)
	d.transmitting = true
	d.pins.SleepMicros(d.halfBitTime)
}

// EnableReceive turns the driver off and the receiver on, then waits
// half a bit for the line to settle.
func (d *Driver) EnableReceive() {
	d.pins.Write(d.conf.DE, pin.Low)
	d.pins.Write(d.conf.RE, pin.Low)
	d.transmitting = false
	d.pins.SleepMicros(d.halfBitTime)
}

// TransmitBit drives the line for one bit time.
func (d *Driver) TransmitBit(bit byte) {
	start := d.pins.Micros()
	d.pins.Write(d.conf.TX, pin.LevelOf(bit))
	d.WaitBitTime(pin.ElapsedMicros(d.pins, start))
}

// SampleBit reads the line once, without any delay.
func (d *Driver) SampleBit() byte {
	return d.pins.Read(d.conf.RX).Bit()
}

// WaitBitTime sleeps for what is left of the current bit after elapsed
// microseconds of processing. Nothing is slept on overrun.
func (d *Driver) WaitBitTime(elapsed uint32) {
	if elapsed < d.bitTime {
		d.pins.SleepMicros(d.bitTime - elapsed)
	}
}

// WaitHalfBitTime sleeps half a bit.
func (d *Driver) WaitHalfBitTime() {
	d.pins.SleepMicros(d.halfBitTime)
}

// Transmit sends a whole bit sequence and returns to receive mode.
// It returns false when the driver isn't initialized or bits is empty.
func (d *Driver) Transmit(bits BitSequence) bool {
	if !d.initialized || bits == nil || bits.Len() == 0 {
		return false
	}
	d.EnableTransmit()
	for i, n := 0, bits.Len(); i < n; i++ {
		d.TransmitBit(bits.At(i))
	}
	d.EnableReceive()
	d.pins.Write(d.conf.TX, pin.High)
	return true
}
