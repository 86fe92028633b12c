package session

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/protocol"
)

var (
	opus = media.Codec{ID: 111, Name: "opus", ClockRate: 48000, Channels: 2}
	vp8  = media.Codec{ID: 96, Name: "VP8", ClockRate: 90000}
)

func newServerRegistry(t *testing.T) (*Registry, *fakeSession, *fakeSession) {
	t.Helper()
	audio := newFakeSession(media.KindAudio, opus)
	video := newFakeSession(media.KindVideo, vp8)
	r := NewRegistry(RegistryConfig{Sessions: []media.Session{video, audio}, Server: true})
	t.Cleanup(r.Close)
	return r, audio, video
}

func TestAddParticipantCreatesStreamPerKind(t *testing.T) {
	r, audio, video := newServerRegistry(t)
	p, err := r.AddParticipant(2, newFakeChannel())
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	for _, s := range []*fakeSession{audio, video} {
		st := s.stream(2)
		if st == nil || !st.started {
			t.Errorf("%s stream not created and started", s.kind)
		}
		if p.Coordinator(s.kind) == nil {
			t.Errorf("%s coordinator missing", s.kind)
		}
	}
	if kinds := r.Kinds(); len(kinds) != 2 || kinds[0] != media.KindAudio {
		t.Errorf("kinds not sorted: %v", kinds)
	}
}

func TestAddDuplicateParticipant(t *testing.T) {
	r, _, _ := newServerRegistry(t)
	if _, err := r.AddParticipant(2, newFakeChannel()); err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	_, err := r.AddParticipant(2, newFakeChannel())
	if !errors.Is(err, ErrDuplicateParticipant) {
		t.Fatalf("expected ErrDuplicateParticipant, got %v", err)
	}
}

func TestRemoveParticipantIsIdempotent(t *testing.T) {
	r, audio, _ := newServerRegistry(t)
	r.RemoveParticipant(42)

	if _, err := r.AddParticipant(2, newFakeChannel()); err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	r.RemoveParticipant(2)
	r.RemoveParticipant(2)

	if !audio.stream(2).isClosed() {
		t.Errorf("stream not released on removal")
	}
	if ids := r.IDs(); len(ids) != 0 {
		t.Errorf("participants left after removal: %v", ids)
	}
}

func TestRouteErrors(t *testing.T) {
	audio := newFakeSession(media.KindAudio, opus)
	r := NewRegistry(RegistryConfig{Sessions: []media.Session{audio}})
	defer r.Close()

	err := r.Route(7, protocol.NewCandidatesDone(media.KindAudio))
	if !errors.Is(err, ErrUnknownParticipant) {
		t.Errorf("expected ErrUnknownParticipant, got %v", err)
	}

	if _, err := r.AddParticipant(1, newFakeChannel()); err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	err = r.Route(1, protocol.NewCandidatesDone(media.KindVideo))
	if !errors.Is(err, ErrUnknownMedia) {
		t.Errorf("expected ErrUnknownMedia, got %v", err)
	}
	if err := r.Route(1, protocol.NewCandidatesDone(media.KindAudio)); err != nil {
		t.Errorf("Route failed: %v", err)
	}
}

// TestRelayReachesEveryOtherParticipant verifies the star relay: when one
// participant negotiates, every other participant gets exactly one
// stream-codecs message even though the engine also reports the change,
// and removed participants are skipped.
func TestRelayReachesEveryOtherParticipant(t *testing.T) {
	r, audio, _ := newServerRegistry(t)
	chans := map[int]*fakeChannel{}
	for _, id := range []int{2, 3, 4} {
		chans[id] = newFakeChannel()
		if _, err := r.AddParticipant(id, chans[id]); err != nil {
			t.Fatalf("AddParticipant(%d) failed: %v", id, err)
		}
	}
	r.RemoveParticipant(4)

	if err := r.Route(2, protocol.NewCodecs(media.KindAudio, []media.Codec{opus})); err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	syncAll(r)

	if !media.CodecsEqual(audio.stream(2).NegotiatedCodecs(), []media.Codec{opus}) {
		t.Fatalf("participant 2 did not negotiate")
	}
	if got := chans[3].ofType(protocol.TypeStreamCodecs); len(got) != 1 || got[0].From != 2 || got[0].Media != media.KindAudio {
		t.Errorf("participant 3 relay: %+v", got)
	}
	if got := chans[2].ofType(protocol.TypeStreamCodecs); len(got) != 0 {
		t.Errorf("participant 2 received its own codecs")
	}
	if got := chans[4].ofType(protocol.TypeStreamCodecs); len(got) != 0 {
		t.Errorf("removed participant received relay")
	}
	if got := chans[2].ofType(protocol.TypeCodecs); len(got) != 1 {
		t.Errorf("participant 2 should get our local codecs once, got %d", len(got))
	}
}

// TestEngineEventsReachCoordinator checks that stream callbacks are
// serialized through the participant loop.
func TestEngineEventsReachCoordinator(t *testing.T) {
	r, audio, _ := newServerRegistry(t)
	ch := newFakeChannel()
	p, err := r.AddParticipant(2, ch)
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	st := audio.stream(2)
	st.emit(media.Event{Type: media.EventLocalCandidate, Candidate: media.Candidate{Address: "10.0.0.1", Port: 4000, Protocol: "udp", Type: "host"}})
	st.emit(media.Event{Type: media.EventLocalCandidatesPrepared})
	st.emit(media.Event{Type: media.EventLocalCandidatesPrepared})
	p.sync()

	want := []protocol.MessageType{protocol.TypeCandidate, protocol.TypeCandidatesDone}
	got := ch.types()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBroadcastLocalCodecsChanged(t *testing.T) {
	r, audio, _ := newServerRegistry(t)
	chans := []*fakeChannel{newFakeChannel(), newFakeChannel()}
	for i, ch := range chans {
		p, err := r.AddParticipant(i+2, ch)
		if err != nil {
			t.Fatalf("AddParticipant failed: %v", err)
		}
		p.markReady()
	}
	syncAll(r)

	audio.local = []media.Codec{opus, {ID: 0, Name: "PCMU", ClockRate: 8000}}
	audio.handler(media.Event{Type: media.EventSessionCodecsChanged, Kind: media.KindAudio})
	syncAll(r)

	for i, ch := range chans {
		var audioCodecs int
		for _, m := range ch.ofType(protocol.TypeCodecs) {
			if m.Media == media.KindAudio {
				audioCodecs++
			}
		}
		if audioCodecs != 2 {
			t.Errorf("participant %d: expected 2 audio codecs messages, got %d", i+2, audioCodecs)
		}
	}
}
