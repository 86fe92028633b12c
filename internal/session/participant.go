package session

import (
	"context"
	"sync"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/negotiation"
	"github.com/1ureka/peercall/internal/protocol"
	"github.com/1ureka/peercall/internal/util"
)

// Participant is one remote endpoint: its signaling outbox, one stream and
// coordinator per media kind, and its render surface.
//
// All coordinator calls happen on the participant's own goroutine. Engine
// callbacks and signaling reads post closures to an unbounded mailbox, so
// posting never blocks the caller.
type Participant struct {
	id      int
	out     negotiation.Outbox
	display Display
	log     util.Logger

	// Immutable after construction.
	streams map[media.Kind]media.Stream
	coords  map[media.Kind]*negotiation.Coordinator
	surface *Surface

	// Lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	// Mailbox
	mu     sync.Mutex
	queue  []func()
	notify chan struct{}
}

func newParticipant(parent context.Context, id int, out negotiation.Outbox, display Display) *Participant {
	ctx, cancel := context.WithCancel(parent)
	p := &Participant{
		id:      id,
		out:     out,
		display: display,
		log:     util.Scoped("p%d", id),
		streams: make(map[media.Kind]media.Stream),
		coords:  make(map[media.Kind]*negotiation.Coordinator),
		surface: newSurface(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		notify:  make(chan struct{}, 1),
	}
	go p.loop()
	return p
}

// ID returns the participant id.
func (p *Participant) ID() int { return p.id }

// Surface returns the participant's render-surface rendezvous.
func (p *Participant) Surface() *Surface { return p.surface }

// Coordinator returns the coordinator of the given kind, or nil.
func (p *Participant) Coordinator(kind media.Kind) *negotiation.Coordinator {
	return p.coords[kind]
}

// attach registers one stream; only called before start.
func (p *Participant) attach(kind media.Kind, stream media.Stream, coord *negotiation.Coordinator) {
	p.streams[kind] = stream
	p.coords[kind] = coord
	stream.OnEvent(func(ev media.Event) {
		p.post(func() { p.handleEvent(kind, ev) })
	})
}

// start begins candidate discovery on every stream.
func (p *Participant) start() {
	for _, kind := range media.Kinds {
		stream, ok := p.streams[kind]
		if !ok {
			continue
		}
		if err := stream.Start(); err != nil {
			p.log.Errorf("starting %s stream: %v", kind, err)
		}
	}
}

// post enqueues fn for the participant goroutine. It reports false once the
// participant is closed.
func (p *Participant) post(fn func()) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}

	p.mu.Lock()
	p.queue = append(p.queue, fn)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
	return true
}

// loop is the single goroutine that mutates coordinator state.
func (p *Participant) loop() {
	defer close(p.done)
	for {
		select {
		case <-p.notify:
			p.mu.Lock()
			batch := p.queue
			p.queue = nil
			p.mu.Unlock()

			for _, fn := range batch {
				if p.ctx.Err() != nil {
					return
				}
				fn()
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// sync waits until every closure posted before it has run. It returns false
// if the participant closed first.
func (p *Participant) sync() bool {
	reached := make(chan struct{})
	if !p.post(func() { close(reached) }) {
		return false
	}
	select {
	case <-reached:
		return true
	case <-p.done:
		return false
	}
}

func (p *Participant) handleEvent(kind media.Kind, ev media.Event) {
	if ev.Type == media.EventRemoteMediaReady {
		p.onRemoteMediaReady(kind)
		return
	}
	coord := p.coords[kind]
	if coord == nil || !coord.HandleEvent(ev) {
		p.log.Debugf("unhandled %s event on %s", ev.Type, kind)
	}
}

// deliver routes one inbound signaling message to its coordinator.
func (p *Participant) deliver(msg *protocol.Message) bool {
	coord := p.coords[msg.Media]
	return p.post(func() { coord.HandleMessage(msg) })
}

// markReady latches every coordinator ready to send local codecs.
func (p *Participant) markReady() {
	p.post(func() {
		for _, kind := range media.Kinds {
			if coord := p.coords[kind]; coord != nil {
				coord.SendLocalCodecs()
			}
		}
	})
}

// onRemoteMediaReady binds remote video to the participant's surface. The
// wait runs off the loop so the rendezvous never stalls negotiation.
func (p *Participant) onRemoteMediaReady(kind media.Kind) {
	p.log.Infof("remote %s connected", kind)
	if kind != media.KindVideo {
		return
	}
	go func() {
		h, err := p.surface.Wait(p.ctx)
		if err != nil {
			p.log.Debugf("video not attached: %v", err)
			return
		}
		p.display.AttachVideo(p.id, h)
	}()
}

// close cancels the surface rendezvous, stops the loop and releases the
// streams. Safe to call more than once.
func (p *Participant) close() {
	p.closeOnce.Do(func() {
		p.surface.Cancel()
		p.cancel()
		<-p.done
		for kind, stream := range p.streams {
			if err := stream.Close(); err != nil {
				p.log.Warnf("closing %s stream: %v", kind, err)
			}
		}
		p.log.Debugf("participant cleanup complete")
	})
}
