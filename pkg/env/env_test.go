package env

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/hdlc485/pkg/bridge/mqtt"
	"github.com/robotalks/hdlc485/pkg/bridge/stream"
	"github.com/robotalks/hdlc485/pkg/bus"
	"github.com/robotalks/hdlc485/pkg/pin"
	"github.com/robotalks/hdlc485/pkg/sim"
)

func TestDefaults(t *testing.T) {
	conf := NewConfig()
	before := Default().BaudRate
	conf.BaudRate = before + 1
	assert.Equal(t, before, Default().BaudRate)
	bc := conf.BusConfig()
	assert.Equal(t, pin.ID(2), bc.TX)
	assert.Equal(t, pin.ID(5), bc.RX)
	assert.Equal(t, pin.ID(3), bc.DE)
	assert.Equal(t, pin.ID(4), bc.RE)
	assert.Equal(t, time.Second, conf.AckTimeout)
	assert.Equal(t, 115200, conf.ConsoleBaud)
	assert.NoError(t, conf.Validate())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{"address", func(c *Config) { c.Address = 0x100 }, nil},
		{"pin range", func(c *Config) { c.TXPin = 300 }, nil},
		{"pin conflict", func(c *Config) { c.RXPin = c.TXPin }, bus.ErrPinConflict},
		{"zero baud", func(c *Config) { c.BaudRate = 0 }, bus.ErrInvalidBaudRate},
		{"fast baud", func(c *Config) { c.BaudRate = bus.MaxBaudRate + 1 }, bus.ErrInvalidBaudRate},
		{"delivery", func(c *Config) { c.Delivery = "mailbox" }, nil},
		{"policy", func(c *Config) { c.PeerPolicy = "maybe" }, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.modify(conf)
			err := conf.Validate()
			require.Error(t, err)
			if tc.err != nil {
				assert.Equal(t, tc.err, err)
			}
		})
	}
}

func TestStationOverSimulatedBus(t *testing.T) {
	conf := NewConfig()
	conf.Address = 0x22
	st, err := conf.NewStation(nil)
	require.NoError(t, err)
	peer := SimPeer(st.Driver())
	require.NotNil(t, peer)
	assert.Equal(t, byte(0x22), peer.Address())

	require.NoError(t, st.Connect())
	require.NoError(t, st.SendData([]byte{0x10}, conf.AckTimeout))
	assert.Equal(t, [][]byte{{0x10}}, peer.Received())

	peer.SetPolicy(sim.PolicyReject)
	assert.Error(t, st.SendData([]byte{0x11}, conf.AckTimeout))
}

func TestStationDelivery(t *testing.T) {
	conf := NewConfig()
	conf.Delivery = DeliveryCallback
	var frames int
	st, err := conf.NewStation(func([]byte, bool) { frames++ })
	require.NoError(t, err)
	require.NoError(t, st.Connect())
	assert.Equal(t, 1, frames)
}

func TestStationPeerPolicy(t *testing.T) {
	conf := NewConfig()
	conf.PeerPolicy = "silent"
	conf.ConnectTimeout = 50 * time.Millisecond
	st, err := conf.NewStation(nil)
	require.NoError(t, err)
	assert.Equal(t, sim.PolicySilent, SimPeer(st.Driver()).Policy())
	assert.Error(t, st.Connect())
}

func TestNewBridge(t *testing.T) {
	conf := NewConfig()
	conf.BridgeURL = "mqtt://localhost:1883/hdlc/"
	conf.Address = 0x0a
	conn, err := conf.NewBridge()
	require.NoError(t, err)
	rw, ok := conn.(*mqtt.ReadWriter)
	require.True(t, ok)
	assert.Equal(t, "0a/tx", rw.SubTopic)
	assert.Equal(t, "0a/rx", rw.PubTopic)
	assert.Equal(t, "hdlc/", rw.Queue.TopicPrefix)

	conf.BridgeURL = StdioURL
	conn, err = conf.NewBridge()
	require.NoError(t, err)
	assert.IsType(t, &stream.ReadWriter{}, conn)

	conf.BridgeURL = "gopher://x"
	_, err = conf.NewBridge()
	assert.Error(t, err)
}

func TestNewBridgeTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		if conn, err := ln.Accept(); err == nil {
			conn.Close()
		}
	}()
	conf := NewConfig()
	conf.BridgeURL = "tcp://" + ln.Addr().String()
	conn, err := conf.NewBridge()
	require.NoError(t, err)
	assert.IsType(t, &stream.ReadWriter{}, conn)
	conn.(*stream.ReadWriter).Close()
}

func TestBridgeClientID(t *testing.T) {
	conf := NewConfig()
	conf.ClientID = "gw1"
	assert.Equal(t, "gw1", conf.BridgeClientID())
	conf.ClientID = ""
	assert.Regexp(t, `^hdlc485-`, conf.BridgeClientID())
}
