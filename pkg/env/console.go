//go:build !tinygo && !baremetal

package env

import (
	"io"
	"os"

	"github.com/tarm/serial"
)

// OpenConsole opens the console serial port, or uses stdin/stdout when no
// port is configured.
func (c *Config) OpenConsole() (io.ReadWriteCloser, error) {
	if c.ConsolePort == "" {
		return stdio{Reader: os.Stdin, Writer: os.Stdout}, nil
	}
	return serial.OpenPort(&serial.Config{Name: c.ConsolePort, Baud: c.ConsoleBaud})
}
