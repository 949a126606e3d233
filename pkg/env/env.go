// Package env builds the link stack from defaults, environment variables
// and command line flags.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/hdlc485/pkg/bus"
	"github.com/robotalks/hdlc485/pkg/hdlc"
	"github.com/robotalks/hdlc485/pkg/link"
	"github.com/robotalks/hdlc485/pkg/pin"
	"github.com/robotalks/hdlc485/pkg/sim"
)

// Receive delivery modes.
const (
	DeliverySlot     = "slot"
	DeliveryCallback = "callback"
)

// Config provides common options to set up the link stack.
type Config struct {
	TXPin    uint
	RXPin    uint
	DEPin    uint
	REPin    uint
	BaudRate uint

	// Address of the secondary station.
	Address        uint
	ConnectTimeout time.Duration
	AckTimeout     time.Duration
	// Delivery is how received frames are handed over, slot or callback.
	Delivery string

	// BridgeURL specifies the frame bridge transport.
	// e.g. mqtt://host:port/topic-prefix, ws://host/path, tcp://host:port, stdio
	BridgeURL string
	// ClientID identifies the bridge client, derived from the machine ID
	// if empty.
	ClientID string

	// ConsolePort is the serial device of the console, stdin/stdout if empty.
	ConsolePort string
	ConsoleBaud int

	// PeerPolicy configures the simulated secondary on host builds.
	PeerPolicy string
}

var defaultConfig = Config{
	TXPin:          2,
	RXPin:          5,
	DEPin:          3,
	REPin:          4,
	BaudRate:       4800,
	Address:        0x01,
	ConnectTimeout: link.DefaultConnectTimeout,
	AckTimeout:     link.DefaultAckTimeout,
	Delivery:       DeliverySlot,
	BridgeURL:      "mqtt://localhost:1883/hdlc/",
	ConsoleBaud:    115200,
	PeerPolicy:     sim.PolicyAck.String(),
}

func init() {
	if val := os.Getenv("HDLC_BAUD_RATE"); val != "" {
		if n, err := strconv.ParseUint(val, 0, 32); err == nil {
			defaultConfig.BaudRate = uint(n)
		}
	}
	if val := os.Getenv("HDLC_ADDRESS"); val != "" {
		if n, err := strconv.ParseUint(val, 0, 8); err == nil {
			defaultConfig.Address = uint(n)
		}
	}
	if val := os.Getenv("HDLC_BRIDGE_URL"); val != "" {
		defaultConfig.BridgeURL = val
	}
	if val := os.Getenv("HDLC_CONSOLE"); val != "" {
		defaultConfig.ConsolePort = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.UintVar(&defaultConfig.TXPin, "tx-pin", defaultConfig.TXPin, "Transmit pin (DI)")
	flag.UintVar(&defaultConfig.RXPin, "rx-pin", defaultConfig.RXPin, "Receive pin (RO)")
	flag.UintVar(&defaultConfig.DEPin, "de-pin", defaultConfig.DEPin, "Driver enable pin")
	flag.UintVar(&defaultConfig.REPin, "re-pin", defaultConfig.REPin, "Receiver enable pin")
	flag.UintVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "RS-485 baud rate")
	flag.UintVar(&defaultConfig.Address, "addr", defaultConfig.Address, "Secondary station address")
	flag.DurationVar(&defaultConfig.ConnectTimeout, "connect-timeout", defaultConfig.ConnectTimeout, "SNRM/UA timeout")
	flag.DurationVar(&defaultConfig.AckTimeout, "ack-timeout", defaultConfig.AckTimeout, "I-frame acknowledgment timeout")
	flag.StringVar(&defaultConfig.Delivery, "delivery", defaultConfig.Delivery, "Received frame delivery: slot or callback")
	flag.StringVar(&defaultConfig.BridgeURL, "bridge", defaultConfig.BridgeURL, "Frame bridge URL")
	flag.StringVar(&defaultConfig.ClientID, "client-id", defaultConfig.ClientID, "Bridge client ID")
	flag.StringVar(&defaultConfig.ConsolePort, "console", defaultConfig.ConsolePort, "Console serial port")
	flag.IntVar(&defaultConfig.ConsoleBaud, "console-baud", defaultConfig.ConsoleBaud, "Console serial baud rate")
	flag.StringVar(&defaultConfig.PeerPolicy, "peer", defaultConfig.PeerPolicy, "Simulated secondary policy: ack, reject or silent")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Address > 0xff {
		return fmt.Errorf("invalid address %#x", c.Address)
	}
	for _, p := range []uint{c.TXPin, c.RXPin, c.DEPin, c.REPin} {
		if p > 0xff {
			return fmt.Errorf("invalid pin %d", p)
		}
	}
	if c.BaudRate > bus.MaxBaudRate {
		return bus.ErrInvalidBaudRate
	}
	switch c.Delivery {
	case DeliverySlot, DeliveryCallback:
	default:
		return fmt.Errorf("unknown delivery %q", c.Delivery)
	}
	if _, err := sim.ParsePolicy(c.PeerPolicy); err != nil {
		return err
	}
	return c.BusConfig().Validate()
}

// BusConfig returns the transceiver wiring.
func (c *Config) BusConfig() bus.Config {
	return bus.Config{
		TX:       pin.ID(c.TXPin),
		RX:       pin.ID(c.RXPin),
		DE:       pin.ID(c.DEPin),
		RE:       pin.ID(c.REPin),
		BaudRate: uint32(c.BaudRate),
	}
}

// NewDriver creates a bus driver on pins.
func (c *Config) NewDriver(pins pin.Pins) (*bus.Driver, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return bus.NewDriver(pins, c.BusConfig())
}

// NewStation creates an initialized station on the configured pins.
// A non-nil onFrame always selects callback delivery; callback delivery
// without onFrame logs the frames.
func (c *Config) NewStation(onFrame hdlc.FrameFunc) (*link.Station, error) {
	pins, err := c.NewPins()
	if err != nil {
		return nil, err
	}
	drv, err := c.NewDriver(pins)
	if err != nil {
		return nil, err
	}
	if onFrame == nil && c.Delivery == DeliveryCallback {
		onFrame = LogFrame
	}
	st := link.NewStation(drv, link.Config{
		Address:        byte(c.Address),
		ConnectTimeout: c.ConnectTimeout,
		OnFrame:        onFrame,
	})
	st.Initialize()
	return st, nil
}

// MustNewStation creates a station and fails on error.
func (c *Config) MustNewStation(onFrame hdlc.FrameFunc) *link.Station {
	st, err := c.NewStation(onFrame)
	if err != nil {
		log.Fatalln(err)
	}
	return st
}

// LogFrame is a frame callback writing frames to the log.
func LogFrame(data []byte, valid bool) {
	glog.Infof("frame %s valid=%v", hdlc.FormatHex(data), valid)
}
