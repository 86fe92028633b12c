package media

import "fmt"

// EventType tags the variant carried by an Event.
type EventType int

const (
	// EventLocalCandidate carries one newly discovered local candidate.
	EventLocalCandidate EventType = iota + 1
	// EventLocalCandidatesPrepared signals that candidate discovery finished.
	EventLocalCandidatesPrepared
	// EventRemoteCodecsChanged carries the stream's new negotiated codecs.
	EventRemoteCodecsChanged
	// EventSessionCodecsChanged is session-wide: the local codec list changed.
	EventSessionCodecsChanged
	// EventRemoteMediaReady signals that the stream's transport is connected
	// and remote media can be linked to a renderer.
	EventRemoteMediaReady
)

func (t EventType) String() string {
	switch t {
	case EventLocalCandidate:
		return "local-candidate"
	case EventLocalCandidatesPrepared:
		return "local-candidates-prepared"
	case EventRemoteCodecsChanged:
		return "remote-codecs-changed"
	case EventSessionCodecsChanged:
		return "session-codecs-changed"
	case EventRemoteMediaReady:
		return "remote-media-ready"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is a tagged variant reported by a Session or a Stream. Only the
// fields relevant to Type are set.
type Event struct {
	Type      EventType
	Kind      Kind
	Candidate Candidate
	Codecs    []Codec
}
