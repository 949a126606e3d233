//go:build !tinygo && !baremetal

package env

import (
	"github.com/robotalks/hdlc485/pkg/bus"
	"github.com/robotalks/hdlc485/pkg/pin"
	"github.com/robotalks/hdlc485/pkg/pin/mock"
	"github.com/robotalks/hdlc485/pkg/sim"
)

// NewPins creates the simulated bus on host builds: virtual-time pins with
// a simulated secondary answering at the configured address.
func (c *Config) NewPins() (pin.Pins, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	policy, _ := sim.ParsePolicy(c.PeerPolicy)
	peer := sim.NewSecondary(byte(c.Address))
	peer.SetPolicy(policy)
	bc := c.BusConfig()
	pins := mock.New(mock.Wiring{TX: bc.TX, RX: bc.RX, DE: bc.DE, RE: bc.RE}, bc.BaudRate)
	pins.Logging = false
	pins.Peer = peer
	return pins, nil
}

// SimPeer returns the simulated secondary behind drv, nil if the bus is
// not simulated.
func SimPeer(drv *bus.Driver) *sim.Secondary {
	if pins, ok := drv.Pins().(*mock.Pins); ok {
		peer, _ := pins.Peer.(*sim.Secondary)
		return peer
	}
	return nil
}
