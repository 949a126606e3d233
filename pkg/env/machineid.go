package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
)

const appID = "hdlc485"

// MachineID retrieves an ID identifying the machine, hashed for this
// application. It falls back to the host name.
func MachineID() string {
	if id, err := machineid.ProtectedID(appID); err == nil {
		return id
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return appID
}

// BridgeClientID returns ClientID, or one derived from the machine ID.
func (c *Config) BridgeClientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	id := MachineID()
	if len(id) > 12 {
		id = id[:12]
	}
	return appID + "-" + id
}
