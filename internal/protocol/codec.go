package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrInvalidMessage is returned by Decode for frames that are not a valid
// signaling message.
var ErrInvalidMessage = errors.New("invalid signaling message")

// Encode serializes a Message into one text frame.
func Encode(msg *Message) ([]byte, error) {
	if err := Validate(msg); err != nil {
		return nil, err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "encode signaling message")
	}
	return data, nil
}

// Decode deserializes one text frame into a Message and validates it.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Wrapf(ErrInvalidMessage, "%v", err)
	}
	if err := Validate(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks that the fields required by the message type are present.
func Validate(msg *Message) error {
	if msg == nil {
		return errors.Wrap(ErrInvalidMessage, "nil message")
	}
	switch msg.Type {
	case TypeWelcome:
		if msg.ID <= 0 {
			return errors.Wrapf(ErrInvalidMessage, "welcome without participant id")
		}
		return nil
	case TypeCandidate, TypeCandidatesDone, TypeCodecs, TypeStreamCodecs:
	default:
		return errors.Wrapf(ErrInvalidMessage, "unknown type %q", msg.Type)
	}

	if !msg.Media.Valid() {
		return errors.Wrapf(ErrInvalidMessage, "%s without media kind", msg.Type)
	}
	switch msg.Type {
	case TypeCandidate:
		if msg.Candidate == nil {
			return errors.Wrap(ErrInvalidMessage, "candidate message without candidate")
		}
	case TypeStreamCodecs:
		if msg.From <= 0 {
			return errors.Wrap(ErrInvalidMessage, "stream-codecs without source participant")
		}
	}
	return nil
}
