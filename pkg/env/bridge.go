package env

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/hdlc485/pkg/bridge"
	"github.com/robotalks/hdlc485/pkg/bridge/mqtt"
	"github.com/robotalks/hdlc485/pkg/bridge/stream"
	"github.com/robotalks/hdlc485/pkg/bridge/websocket"
)

// StdioURL selects the length-prefixed stream over stdin/stdout.
const StdioURL = "stdio"

type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error {
	return nil
}

// NewBridge opens the gateway side of the bridge transport for the
// configured station.
func (c *Config) NewBridge() (bridge.PacketReadWriter, error) {
	if c.BridgeURL == StdioURL || c.BridgeURL == "-" {
		return stream.New(stdio{Reader: os.Stdin, Writer: os.Stdout}), nil
	}
	u, err := url.Parse(c.BridgeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge URL: %v", err)
	}
	switch u.Scheme {
	case "mqtt", "mqtts":
		q, err := mqtt.NewQueueFromURL(c.BridgeURL, c.BridgeClientID())
		if err != nil {
			return nil, err
		}
		return mqtt.NewPacketReadWriter(q).ForGateway(byte(c.Address)), nil
	case "ws", "wss":
		origin := "http://" + u.Host + "/"
		if u.Scheme == "wss" {
			origin = "https://" + u.Host + "/"
		}
		conn, err := websocket.Dial(c.BridgeURL, origin)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "tcp":
		conn, err := stream.Dial(u.Host)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unknown bridge URL scheme: %q", u.Scheme)
	}
}

// MustNewBridge opens the bridge transport and fails on error.
func (c *Config) MustNewBridge() bridge.PacketReadWriter {
	conn, err := c.NewBridge()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
