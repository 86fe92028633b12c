package session

import (
	"sync"
	"testing"
	"time"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/protocol"
)

// fakeSession creates fakeStreams and remembers them by participant id.
type fakeSession struct {
	kind  media.Kind
	local []media.Codec

	mu      sync.Mutex
	streams map[int]*fakeStream
	handler func(media.Event)
}

func newFakeSession(kind media.Kind, local ...media.Codec) *fakeSession {
	return &fakeSession{kind: kind, local: local, streams: make(map[int]*fakeStream)}
}

func (s *fakeSession) Kind() media.Kind { return s.kind }

func (s *fakeSession) NewStream(id int, _ media.Direction) (media.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &fakeStream{kind: s.kind}
	s.streams[id] = st
	return st, nil
}

func (s *fakeSession) stream(id int) *fakeStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[id]
}

func (s *fakeSession) LocalCodecs() []media.Codec               { return s.local }
func (s *fakeSession) CodecsNeedResend(_, _ []media.Codec) bool { return false }
func (s *fakeSession) SetSendCodec(int) error                   { return nil }
func (s *fakeSession) OnEvent(fn func(media.Event))             { s.handler = fn }
func (s *fakeSession) Close() error                             { return nil }

// fakeStream negotiates whatever remote list it is given.
type fakeStream struct {
	kind media.Kind

	mu         sync.Mutex
	handler    func(media.Event)
	remote     []media.Codec
	negotiated []media.Codec
	started    bool
	closed     bool
}

func (s *fakeStream) Kind() media.Kind { return s.kind }

func (s *fakeStream) OnEvent(fn func(media.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

func (s *fakeStream) emit(ev media.Event) {
	s.mu.Lock()
	fn := s.handler
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (s *fakeStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *fakeStream) AddRemoteCandidates([]media.Candidate) error   { return nil }
func (s *fakeStream) ForceRemoteCandidates([]media.Candidate) error { return nil }

// SetRemoteCodecs emits a change event when the negotiated list changes,
// like the engine does.
func (s *fakeStream) SetRemoteCodecs(c []media.Codec) error {
	if len(c) == 0 {
		return media.ErrEngineRejected
	}
	s.mu.Lock()
	changed := !media.CodecsEqual(s.negotiated, c)
	s.remote, s.negotiated = c, c
	s.mu.Unlock()

	if changed {
		s.emit(media.Event{Type: media.EventRemoteCodecsChanged, Kind: s.kind, Codecs: media.CloneCodecs(c)})
	}
	return nil
}

func (s *fakeStream) RemoteCodecs() []media.Codec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

func (s *fakeStream) NegotiatedCodecs() []media.Codec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.negotiated
}

func (s *fakeStream) setNegotiated(c []media.Codec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.negotiated = c
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakeChannel is an in-memory signaling link.
type fakeChannel struct {
	mu      sync.Mutex
	sent    []*protocol.Message
	onMsg   func(*protocol.Message)
	started bool

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{done: make(chan struct{})}
}

func (c *fakeChannel) Send(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
}

func (c *fakeChannel) OnMessage(fn func(*protocol.Message)) { c.onMsg = fn }
func (c *fakeChannel) Start()                               { c.started = true }
func (c *fakeChannel) Done() <-chan struct{}                { return c.done }
func (c *fakeChannel) Err() error                           { return c.err }

func (c *fakeChannel) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// disconnect simulates the remote side going away.
func (c *fakeChannel) disconnect(err error) {
	c.err = err
	c.Close()
}

// receive feeds one inbound message as the read loop would.
func (c *fakeChannel) receive(msg *protocol.Message) {
	c.onMsg(msg)
}

func (c *fakeChannel) ofType(t protocol.MessageType) []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*protocol.Message
	for _, m := range c.sent {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeChannel) types() []protocol.MessageType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.MessageType, len(c.sent))
	for i, m := range c.sent {
		out[i] = m.Type
	}
	return out
}

// recordingDisplay captures what the session reports to the interface.
type recordingDisplay struct {
	nopDisplay

	mu       sync.Mutex
	fatal    []error
	left     []int
	attached map[int]SurfaceHandle
	provide  map[int]func(SurfaceHandle)
}

func newRecordingDisplay() *recordingDisplay {
	return &recordingDisplay{attached: make(map[int]SurfaceHandle), provide: make(map[int]func(SurfaceHandle))}
}

func (d *recordingDisplay) OnFatalDisconnect(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fatal = append(d.fatal, err)
}

func (d *recordingDisplay) ParticipantLeft(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.left = append(d.left, id)
}

func (d *recordingDisplay) RealizeSurface(id int, provide func(SurfaceHandle)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.provide[id] = provide
}

func (d *recordingDisplay) AttachVideo(id int, h SurfaceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached[id] = h
}

func (d *recordingDisplay) attachedTo(id int) (SurfaceHandle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.attached[id]
	return h, ok
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// syncAll drains the mailbox of every registered participant.
func syncAll(r *Registry) {
	// Two rounds: handling a message can post engine events behind the
	// first barrier.
	for range 2 {
		for _, id := range r.IDs() {
			if p, ok := r.Participant(id); ok {
				p.sync()
			}
		}
	}
}
