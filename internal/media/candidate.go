package media

import (
	"fmt"
	"net"
)

// Candidate is one network transport candidate discovered by the media
// engine for a single (participant, media kind) stream. The ICE credentials
// of the stream that produced it travel with every candidate.
type Candidate struct {
	Foundation     string `json:"foundation"`
	Component      uint16 `json:"component"`
	Protocol       string `json:"protocol"`
	Priority       uint32 `json:"priority"`
	Address        string `json:"address"`
	Port           uint16 `json:"port"`
	Type           string `json:"type"`
	RelatedAddress string `json:"relatedAddress,omitempty"`
	RelatedPort    uint16 `json:"relatedPort,omitempty"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s %s %s", c.Protocol, c.Type, net.JoinHostPort(c.Address, fmt.Sprint(c.Port)))
}

// Family classifies the candidate address as "IPv4", "IPv6" or "other"
// (mDNS names and anything else that is not an IP literal).
func (c Candidate) Family() string {
	ip := net.ParseIP(c.Address)
	switch {
	case ip == nil:
		return "other"
	case ip.To4() != nil:
		return "IPv4"
	default:
		return "IPv6"
	}
}
