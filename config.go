package main

import (
	"fmt"
	"net"

	"github.com/BurntSushi/toml"

	"drtp-file-transfer/drtp"
)

const (
	ModeClient = "client"
	ModeServer = "server"
)

// Config is the resolved program configuration. Values are layered:
// built-in defaults, then an optional TOML file, then command line
// flags, each overriding the last.
type Config struct {
	Mode    string `toml:"mode"`
	File    string `toml:"file"`
	IP      string `toml:"ip"`
	Port    int    `toml:"port"`
	Window  int    `toml:"window"`
	Discard int    `toml:"discard"`
	Debug   bool   `toml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		IP:      "127.0.0.1",
		Port:    8088,
		Window:  drtp.DefaultWindowSize,
		Discard: -1,
	}
}

// LoadConfigFile overlays values from a TOML file onto c. Keys absent
// from the file leave the current value untouched.
func LoadConfigFile(path string, c *Config) error {
	_, err := toml.DecodeFile(path, c)
	return err
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeClient, ModeServer:
	case "":
		return fmt.Errorf("one of -c or -s is required")
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.File == "" {
		return fmt.Errorf("a file name is required, use -f")
	}
	if net.ParseIP(c.IP) == nil {
		return fmt.Errorf("invalid IP address %q", c.IP)
	}
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range [1024, 65535]", c.Port)
	}
	if c.Window < 1 {
		return fmt.Errorf("window size %d must be at least 1", c.Window)
	}
	if c.Discard != -1 {
		if c.Mode != ModeServer {
			return fmt.Errorf("-d applies to the server only")
		}
		if c.Discard < 0 || c.Discard > 65535 {
			return fmt.Errorf("discard seq %d out of range [0, 65535]", c.Discard)
		}
	}
	return nil
}

// Addr is the ip:port endpoint the transfer binds or dials.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.IP, fmt.Sprintf("%d", c.Port))
}
