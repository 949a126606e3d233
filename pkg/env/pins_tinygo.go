//go:build tinygo || baremetal

package env

import (
	"github.com/robotalks/hdlc485/pkg/bus"
	"github.com/robotalks/hdlc485/pkg/pin"
	"github.com/robotalks/hdlc485/pkg/pin/machine"
	"github.com/robotalks/hdlc485/pkg/sim"
)

// NewPins creates pins backed by the board GPIOs.
func (c *Config) NewPins() (pin.Pins, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return machine.New(), nil
}

// SimPeer always returns nil on boards.
func SimPeer(drv *bus.Driver) *sim.Secondary {
	return nil
}
