package media

import "github.com/pkg/errors"

// ErrEngineRejected is returned by an engine that refuses a codec or
// candidate application (malformed or empty input, nothing in common).
var ErrEngineRejected = errors.New("engine rejected")

// Session is one media session of the engine (one per Kind). It owns the
// local codec preferences and creates one Stream per remote participant.
type Session interface {
	Kind() Kind

	// NewStream creates the stream toward one remote participant. Event
	// delivery starts only after Stream.Start.
	NewStream(participantID int, dir Direction) (Stream, error)

	// LocalCodecs returns the current local codec list. It may be empty
	// while the engine has not settled its codecs yet.
	LocalCodecs() []Codec

	// CodecsNeedResend reports whether current must be sent again even if
	// it is structurally equal to previous.
	CodecsNeedResend(previous, current []Codec) bool

	// SetSendCodec makes the codec with the given payload id the preferred
	// send codec.
	SetSendCodec(id int) error

	// OnEvent registers the session-level event handler
	// (EventSessionCodecsChanged).
	OnEvent(fn func(Event))

	Close() error
}

// Stream is the engine side of one (participant, media kind) pair.
type Stream interface {
	Kind() Kind

	// OnEvent registers the handler for stream events. Handlers may be
	// invoked from engine goroutines and must not block.
	OnEvent(fn func(Event))

	// Start begins local candidate discovery.
	Start() error

	// AddRemoteCandidates augments the engine's candidate set.
	AddRemoteCandidates(candidates []Candidate) error
	// ForceRemoteCandidates makes the given candidates authoritative.
	ForceRemoteCandidates(candidates []Candidate) error

	// SetRemoteCodecs applies the remote codec list. It fails with
	// ErrEngineRejected on malformed input.
	SetRemoteCodecs(codecs []Codec) error
	RemoteCodecs() []Codec
	NegotiatedCodecs() []Codec

	Close() error
}
