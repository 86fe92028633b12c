package negotiation

import (
	"sync"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/protocol"
)

// fakeSession is an in-memory media.Session with scripted codecs.
type fakeSession struct {
	kind   media.Kind
	local  []media.Codec
	resend bool

	resendCalls int
}

func (s *fakeSession) Kind() media.Kind { return s.kind }
func (s *fakeSession) NewStream(int, media.Direction) (media.Stream, error) {
	return &fakeStream{kind: s.kind}, nil
}
func (s *fakeSession) LocalCodecs() []media.Codec { return s.local }
func (s *fakeSession) CodecsNeedResend(prev, cur []media.Codec) bool {
	s.resendCalls++
	return s.resend
}
func (s *fakeSession) SetSendCodec(int) error    { return nil }
func (s *fakeSession) OnEvent(func(media.Event)) {}
func (s *fakeSession) Close() error              { return nil }

// fakeStream records every engine call the coordinator makes.
type fakeStream struct {
	kind       media.Kind
	remote     []media.Codec
	negotiated []media.Codec
	reject     bool

	added    [][]media.Candidate
	forced   [][]media.Candidate
	setCalls int
	closed   bool
}

func (s *fakeStream) Kind() media.Kind            { return s.kind }
func (s *fakeStream) OnEvent(func(media.Event))   {}
func (s *fakeStream) Start() error                { return nil }
func (s *fakeStream) RemoteCodecs() []media.Codec { return s.remote }
func (s *fakeStream) NegotiatedCodecs() []media.Codec {
	return s.negotiated
}
func (s *fakeStream) AddRemoteCandidates(c []media.Candidate) error {
	s.added = append(s.added, c)
	return nil
}
func (s *fakeStream) ForceRemoteCandidates(c []media.Candidate) error {
	s.forced = append(s.forced, c)
	return nil
}
func (s *fakeStream) SetRemoteCodecs(c []media.Codec) error {
	s.setCalls++
	if s.reject || len(c) == 0 {
		return media.ErrEngineRejected
	}
	s.remote = c
	s.negotiated = c
	return nil
}
func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

// recordingOutbox keeps every message sent toward the remote.
type recordingOutbox struct {
	mu   sync.Mutex
	msgs []*protocol.Message
}

func (o *recordingOutbox) Send(msg *protocol.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
}

func (o *recordingOutbox) ofType(t protocol.MessageType) []*protocol.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*protocol.Message
	for _, m := range o.msgs {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

type relayCall struct {
	from   int
	kind   media.Kind
	codecs []media.Codec
}

type fakeRelay struct {
	calls []relayCall
}

func (r *fakeRelay) RelayStreamCodecs(from int, kind media.Kind, codecs []media.Codec) {
	r.calls = append(r.calls, relayCall{from, kind, codecs})
}

type fakeDisplay struct {
	codecs     map[int][]media.Codec
	candidates int
}

func (d *fakeDisplay) OnCodecsChangedForDisplay(id int, _ media.Kind, codecs []media.Codec) {
	if d.codecs == nil {
		d.codecs = make(map[int][]media.Codec)
	}
	d.codecs[id] = codecs
}

func (d *fakeDisplay) OnNewLocalCandidateForDisplay(int, media.Kind, media.Candidate) {
	d.candidates++
}
