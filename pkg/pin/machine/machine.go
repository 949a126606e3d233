//go:build tinygo || baremetal

// Package machine backs pin.Pins with the TinyGo machine package.
package machine

import (
	"machine"
	"time"

	"github.com/robotalks/hdlc485/pkg/pin"
)

// Pins drives real GPIOs.
type Pins struct {
	start time.Time
}

// New creates Pins.
func New() *Pins {
	return &Pins{start: time.Now()}
}

// SetMode implements pin.Digital.
func (p *Pins) SetMode(id pin.ID, mode pin.Mode) {
	conf := machine.PinConfig{Mode: machine.PinInput}
	if mode == pin.Output {
		conf.Mode = machine.PinOutput
	}
	machine.Pin(id).Configure(conf)
}

// Write implements pin.Digital.
func (p *Pins) Write(id pin.ID, level pin.Level) {
	machine.Pin(id).Set(level != pin.Low)
}

// Read implements pin.Digital.
func (p *Pins) Read(id pin.ID) pin.Level {
	if machine.Pin(id).Get() {
		return pin.High
	}
	return pin.Low
}

// SleepMicros implements pin.Clock with a busy wait; time.Sleep is too
// coarse on most boards for sub-bit delays.
func (p *Pins) SleepMicros(us uint32) {
	deadline := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}

// Millis implements pin.Clock.
func (p *Pins) Millis() uint32 {
	return uint32(time.Since(p.start) / time.Millisecond)
}

// Micros implements pin.Clock.
func (p *Pins) Micros() uint32 {
	return uint32(time.Since(p.start) / time.Microsecond)
}
