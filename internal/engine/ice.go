package engine

import (
	"strings"

	"github.com/pion/webrtc/v4"
)

// iceServers turns "host:port" or "stun:host:port" entries into pion ICE
// servers. No TURN: connectivity is direct or via server-reflexive
// candidates only.
func iceServers(stun []string) []webrtc.ICEServer {
	urls := make([]string, 0, len(stun))
	for _, s := range stun {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, "stun:") && !strings.HasPrefix(s, "stuns:") {
			s = "stun:" + s
		}
		urls = append(urls, s)
	}
	if len(urls) == 0 {
		return nil
	}
	return []webrtc.ICEServer{{URLs: urls}}
}

func iceRole(controlling bool) webrtc.ICERole {
	if controlling {
		return webrtc.ICERoleControlling
	}
	return webrtc.ICERoleControlled
}
