package session

import (
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/negotiation"
	"github.com/1ureka/peercall/internal/protocol"
	"github.com/1ureka/peercall/internal/util"
)

// RegistryConfig wires a Registry to the media sessions of this process.
type RegistryConfig struct {
	Sessions []media.Session
	Policy   negotiation.CandidatePolicy
	Server   bool
	Display  Display
}

// Registry owns the participant route table. Adding and removing
// participants is safe from any goroutine.
type Registry struct {
	ctx    context.Context
	cancel context.CancelFunc

	sessions map[media.Kind]media.Session
	kinds    []media.Kind
	policy   negotiation.CandidatePolicy
	server   bool
	display  Display

	mu           sync.RWMutex
	participants map[int]*Participant
}

// NewRegistry creates an empty registry and subscribes to the session-level
// codec events of every media session.
func NewRegistry(cfg RegistryConfig) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		ctx:          ctx,
		cancel:       cancel,
		sessions:     make(map[media.Kind]media.Session),
		policy:       cfg.Policy,
		server:       cfg.Server,
		display:      cfg.Display,
		participants: make(map[int]*Participant),
	}
	if r.display == nil {
		r.display = nopDisplay{}
	}
	for _, s := range cfg.Sessions {
		kind := s.Kind()
		r.sessions[kind] = s
		r.kinds = append(r.kinds, kind)
		s.OnEvent(func(ev media.Event) {
			if ev.Type == media.EventSessionCodecsChanged {
				r.display.OnLocalCodecsChanged(kind, s.LocalCodecs())
				r.BroadcastLocalCodecsChanged(kind)
			}
		})
	}
	slices.Sort(r.kinds)
	return r
}

// Kinds returns the configured media kinds.
func (r *Registry) Kinds() []media.Kind { return r.kinds }

// AddParticipant registers id with one stream and coordinator per media
// kind and starts candidate discovery.
func (r *Registry) AddParticipant(id int, out negotiation.Outbox) (*Participant, error) {
	r.mu.Lock()
	if _, exists := r.participants[id]; exists {
		r.mu.Unlock()
		return nil, errors.Wrapf(ErrDuplicateParticipant, "participant %d", id)
	}

	p := newParticipant(r.ctx, id, out, r.display)
	for _, kind := range r.kinds {
		stream, err := r.sessions[kind].NewStream(id, media.DirectionBoth)
		if err != nil {
			r.mu.Unlock()
			p.close()
			return nil, errors.Wrapf(err, "creating %s stream for participant %d", kind, id)
		}
		p.attach(kind, stream, negotiation.New(negotiation.Config{
			ParticipantID: id,
			Kind:          kind,
			Session:       r.sessions[kind],
			Stream:        stream,
			Outbox:        out,
			Relay:         r,
			Display:       r.display,
			Policy:        r.policy,
			Server:        r.server,
		}))
	}
	r.participants[id] = p
	r.mu.Unlock()

	util.Stats.AddJoin()
	p.start()
	r.display.RealizeSurface(id, func(h SurfaceHandle) { p.surface.Provide(h) })
	util.LogInfo("participant %d joined", id)
	return p, nil
}

// RemoveParticipant tears down a participant. Removing an unknown id is a
// no-op, since teardown can race with a disconnect notification.
func (r *Registry) RemoveParticipant(id int) {
	r.mu.Lock()
	p, ok := r.participants[id]
	delete(r.participants, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	p.close()
	util.Stats.AddLeave()
	r.display.ParticipantLeft(id)
	util.LogInfo("participant %d left", id)
}

// Participant returns the registered participant with the given id.
func (r *Registry) Participant(id int) (*Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	return p, ok
}

// IDs returns the registered participant ids in ascending order.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	ids := make([]int, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Route hands an inbound media message to the coordinator it addresses.
// The caller logs the returned error; the message is dropped.
func (r *Registry) Route(id int, msg *protocol.Message) error {
	p, ok := r.Participant(id)
	if !ok {
		return errors.Wrapf(ErrUnknownParticipant, "participant %d (%s)", id, msg.Type)
	}
	if p.Coordinator(msg.Media) == nil {
		return errors.Wrapf(ErrUnknownMedia, "%s for participant %d", msg.Media, id)
	}
	if !p.deliver(msg) {
		return errors.Wrapf(ErrUnknownParticipant, "participant %d is closing", id)
	}
	return nil
}

// BroadcastLocalCodecsChanged asks every coordinator of kind to re-check
// its local codecs.
func (r *Registry) BroadcastLocalCodecsChanged(kind media.Kind) {
	r.each(func(p *Participant) {
		coord := p.Coordinator(kind)
		if coord == nil {
			return
		}
		p.post(func() { coord.HandleEvent(media.Event{Type: media.EventSessionCodecsChanged, Kind: kind}) })
	})
}

// RelayStreamCodecs sends the negotiated codecs of participant from to every
// other registered participant.
func (r *Registry) RelayStreamCodecs(from int, kind media.Kind, codecs []media.Codec) {
	r.each(func(p *Participant) {
		if p.id == from {
			return
		}
		if coord := p.Coordinator(kind); coord != nil {
			coord.ForwardStreamCodecs(from, codecs)
		}
	})
}

// SendCodecsTo replays every other participant's negotiated codecs to the
// participant target.
func (r *Registry) SendCodecsTo(target int) int {
	dst, ok := r.Participant(target)
	if !ok {
		return 0
	}
	sent := 0
	r.each(func(p *Participant) {
		if p.id == target {
			return
		}
		for _, kind := range r.kinds {
			if p.Coordinator(kind).SendCodecsTo(dst.Coordinator(kind)) {
				sent++
			}
		}
	})
	return sent
}

// Close removes every participant.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.RemoveParticipant(id)
	}
	r.cancel()
}

// each runs fn for every participant in id order under the read lock. fn
// must not block on a participant goroutine.
func (r *Registry) each(fn func(p *Participant)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fn(r.participants[id])
	}
}
