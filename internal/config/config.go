// Package config holds the startup parameters of a peercall process.
package config

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/media"
)

// DefaultPort is the signaling port used when none is given.
const DefaultPort = 9893

// DefaultSTUN is the STUN server used for server-reflexive candidates.
const DefaultSTUN = "stun.l.google.com:19302"

// Role represents the part this process plays in the session topology.
type Role string

const (
	RoleServer Role = "server"
	RoleClient Role = "client"
)

// Transmitter selects how remote candidates are handed to the media engine.
// It is a deployment-wide setting, never decided per stream.
type Transmitter string

const (
	// TransmitterNice adds remote candidates to the engine's own set.
	TransmitterNice Transmitter = "nice"
	// TransmitterRawUDP makes remote candidates authoritative.
	TransmitterRawUDP Transmitter = "rawudp"
)

// ForceCandidates reports whether remote candidates replace, rather than
// augment, the engine's discovered set.
func (t Transmitter) ForceCandidates() bool {
	return t == TransmitterRawUDP
}

// Config stores all parameters gathered from flags or interactive prompts.
type Config struct {
	Role          Role
	RemoteAddress string // Client: host of the server to connect to
	Port          uint16 // Server: listen port; Client: server port
	Transmitter   Transmitter
	STUNServers   []string
	Media         []media.Kind
	Debug         bool
}

// Default returns a configuration with every optional field populated.
func Default() Config {
	return Config{
		Port:        DefaultPort,
		Transmitter: TransmitterNice,
		STUNServers: []string{DefaultSTUN},
		Media:       []media.Kind{media.KindAudio, media.KindVideo},
	}
}

// Validate rejects configurations the session controller cannot start with.
func (c Config) Validate() error {
	switch c.Role {
	case RoleServer, RoleClient:
	case "":
		return errors.New("role is required (server or client)")
	default:
		return errors.Errorf("unknown role %q", c.Role)
	}
	if c.Port == 0 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.Role == RoleClient && strings.TrimSpace(c.RemoteAddress) == "" {
		return errors.New("client role requires a remote address")
	}
	switch c.Transmitter {
	case TransmitterNice, TransmitterRawUDP:
	default:
		return errors.Errorf("unknown transmitter %q", c.Transmitter)
	}
	if len(c.Media) == 0 {
		return errors.New("at least one media kind must be enabled")
	}
	seen := make(map[media.Kind]bool, len(c.Media))
	for _, k := range c.Media {
		if !k.Valid() {
			return errors.Errorf("invalid media kind %s", k)
		}
		if seen[k] {
			return errors.Errorf("media kind %s listed twice", k)
		}
		seen[k] = true
	}
	return nil
}

// IsServer reports whether relay behavior is enabled.
func (c Config) IsServer() bool {
	return c.Role == RoleServer
}
