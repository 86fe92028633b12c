// Package protocol defines the signaling messages exchanged between peers
// while negotiating candidates and codecs for each media stream.
package protocol

import "github.com/1ureka/peercall/internal/media"

// MessageType identifies the kind of signaling message.
type MessageType string

const (
	TypeWelcome        MessageType = "welcome"         // server -> client: assigned participant id
	TypeCandidate      MessageType = "candidate"       // one local candidate of the sender's stream
	TypeCandidatesDone MessageType = "candidates-done" // sender finished candidate discovery
	TypeCodecs         MessageType = "codecs"          // sender's local codec list
	TypeStreamCodecs   MessageType = "stream-codecs"   // server relay of participant From's codecs
)

// Message is one signaling message. Media messages carry the media kind of
// the stream they belong to; the remaining fields depend on Type.
type Message struct {
	Type      MessageType      `json:"type"`
	Media     media.Kind       `json:"media,omitempty"`
	From      int              `json:"from,omitempty"`
	ID        int              `json:"id,omitempty"`
	Instance  string           `json:"instance,omitempty"`
	Candidate *media.Candidate `json:"candidate,omitempty"`
	Codecs    []media.Codec    `json:"codecs,omitempty"`
}

// NewCandidate builds a candidate message for the given stream.
func NewCandidate(kind media.Kind, c media.Candidate) *Message {
	return &Message{Type: TypeCandidate, Media: kind, Candidate: &c}
}

// NewCandidatesDone builds a candidates-done message for the given stream.
func NewCandidatesDone(kind media.Kind) *Message {
	return &Message{Type: TypeCandidatesDone, Media: kind}
}

// NewCodecs builds a codecs message carrying the sender's local codec list.
func NewCodecs(kind media.Kind, codecs []media.Codec) *Message {
	return &Message{Type: TypeCodecs, Media: kind, Codecs: media.CloneCodecs(codecs)}
}

// NewStreamCodecs builds the relay message announcing the negotiated codecs
// of participant from.
func NewStreamCodecs(kind media.Kind, from int, codecs []media.Codec) *Message {
	return &Message{Type: TypeStreamCodecs, Media: kind, From: from, Codecs: media.CloneCodecs(codecs)}
}

// NewWelcome builds the message a server sends right after accepting a peer.
func NewWelcome(id int, instance string) *Message {
	return &Message{Type: TypeWelcome, ID: id, Instance: instance}
}

// IsMedia reports whether the message belongs to a media stream and must be
// routed to a negotiation coordinator.
func (m *Message) IsMedia() bool {
	return m.Type != TypeWelcome
}
