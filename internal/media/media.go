// Package media defines the values and engine contracts shared by the
// negotiation core: media kinds, candidates, codecs and the events a media
// engine reports for its sessions and streams.
package media

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies one media session (one per kind per process).
type Kind int

const (
	KindAudio Kind = iota + 1
	KindVideo
)

// Kinds lists every supported media kind in session creation order.
var Kinds = []Kind{KindAudio, KindVideo}

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the known media kinds.
func (k Kind) Valid() bool {
	return k == KindAudio || k == KindVideo
}

// ParseKind parses "audio" or "video" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "audio":
		return KindAudio, nil
	case "video":
		return KindVideo, nil
	default:
		return 0, errors.Errorf("unknown media kind %q", s)
	}
}

// MarshalText encodes the kind by name so wire messages stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errors.Errorf("cannot encode %s", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Direction is the media direction requested when a stream is created.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionSend
	DirectionRecv
	DirectionBoth
)

func (d Direction) String() string {
	switch d {
	case DirectionSend:
		return "send"
	case DirectionRecv:
		return "recv"
	case DirectionBoth:
		return "sendrecv"
	default:
		return "none"
	}
}
