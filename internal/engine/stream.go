package engine

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/util"
)

// Stream is the media.Stream toward one participant: an ICE gatherer for
// local candidates and an ICE transport started once the remote
// credentials are known.
type Stream struct {
	session   *Session
	gatherer  *webrtc.ICEGatherer
	transport *webrtc.ICETransport
	log       util.Logger

	mu          sync.Mutex
	handler     func(media.Event)
	localParams webrtc.ICEParameters
	started     bool // transport started
	prepared    bool
	connected   bool
	remote      []media.Codec
	negotiated  []media.Codec
	closeOnce   sync.Once
}

var _ media.Stream = (*Stream)(nil)

func newStream(s *Session, id int, g *webrtc.ICEGatherer, t *webrtc.ICETransport) *Stream {
	st := &Stream{
		session:   s,
		gatherer:  g,
		transport: t,
		log:       util.Scoped("engine/p%d/%s", id, s.kind),
	}

	g.OnLocalCandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			st.mu.Lock()
			first := !st.prepared
			st.prepared = true
			st.mu.Unlock()
			if first {
				st.emit(media.Event{Type: media.EventLocalCandidatesPrepared, Kind: s.kind})
			}
			return
		}
		st.mu.Lock()
		params := st.localParams
		st.mu.Unlock()
		st.emit(media.Event{Type: media.EventLocalCandidate, Kind: s.kind, Candidate: fromICECandidate(c, params)})
	})

	t.OnConnectionStateChange(func(state webrtc.ICETransportState) {
		st.log.Debugf("ICE transport %s", state)
		if state != webrtc.ICETransportStateConnected && state != webrtc.ICETransportStateCompleted {
			return
		}
		st.mu.Lock()
		first := !st.connected
		st.connected = true
		st.mu.Unlock()
		if first {
			st.emit(media.Event{Type: media.EventRemoteMediaReady, Kind: s.kind})
		}
	})

	return st
}

func (st *Stream) Kind() media.Kind { return st.session.kind }

func (st *Stream) OnEvent(fn func(media.Event)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.handler = fn
}

func (st *Stream) emit(ev media.Event) {
	st.mu.Lock()
	fn := st.handler
	st.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Start fetches the local ICE credentials and begins gathering.
func (st *Stream) Start() error {
	params, err := st.gatherer.GetLocalParameters()
	if err != nil {
		return errors.Wrap(err, "reading local ICE parameters")
	}
	st.mu.Lock()
	st.localParams = params
	st.mu.Unlock()

	if err := st.gatherer.Gather(); err != nil {
		return errors.Wrap(err, "gathering candidates")
	}
	return nil
}

func (st *Stream) AddRemoteCandidates(batch []media.Candidate) error {
	cands, err := st.prepareRemote(batch)
	if err != nil {
		return err
	}
	for i := range cands {
		if err := st.transport.AddRemoteCandidate(&cands[i]); err != nil {
			return errors.Wrapf(err, "adding remote candidate %s", batch[i])
		}
	}
	return nil
}

// ForceRemoteCandidates hands the whole batch to the transport as its
// remote candidate set.
func (st *Stream) ForceRemoteCandidates(batch []media.Candidate) error {
	cands, err := st.prepareRemote(batch)
	if err != nil {
		return err
	}
	if err := st.transport.SetRemoteCandidates(cands); err != nil {
		return errors.Wrapf(err, "setting %d remote candidates", len(cands))
	}
	return nil
}

// prepareRemote converts a batch and starts the transport with the first
// remote credentials seen.
func (st *Stream) prepareRemote(batch []media.Candidate) ([]webrtc.ICECandidate, error) {
	if len(batch) == 0 {
		return nil, errors.Wrap(media.ErrEngineRejected, "empty candidate batch")
	}
	cands := make([]webrtc.ICECandidate, 0, len(batch))
	for _, c := range batch {
		ic, err := toICECandidate(c)
		if err != nil {
			return nil, err
		}
		cands = append(cands, ic)
	}

	if params, ok := remoteParameters(batch); ok {
		st.startTransport(params)
	}
	return cands, nil
}

func (st *Stream) startTransport(params webrtc.ICEParameters) {
	st.mu.Lock()
	if st.started {
		st.mu.Unlock()
		return
	}
	st.started = true
	st.mu.Unlock()

	role := iceRole(st.session.controlling)
	st.log.Debugf("starting ICE transport as %s", role)
	go func() {
		// Start blocks until connectivity checks succeed or fail.
		if err := st.transport.Start(nil, params, &role); err != nil {
			st.log.Warnf("ICE transport: %v", err)
		}
	}()
}

// SetRemoteCodecs stores the remote list and recomputes the negotiated
// codecs. A list with nothing in common with the local codecs is rejected.
func (st *Stream) SetRemoteCodecs(codecs []media.Codec) error {
	if len(codecs) == 0 {
		return errors.Wrap(media.ErrEngineRejected, "empty remote codec list")
	}
	negotiated := negotiate(st.session.LocalCodecs(), codecs)
	if len(negotiated) == 0 {
		return errors.Wrapf(media.ErrEngineRejected, "no common %s codec in %s", st.session.kind, fmt.Sprint(codecs))
	}

	st.mu.Lock()
	st.remote = media.CloneCodecs(codecs)
	changed := !media.CodecsEqual(st.negotiated, negotiated)
	st.negotiated = negotiated
	st.mu.Unlock()

	if changed {
		st.emit(media.Event{Type: media.EventRemoteCodecsChanged, Kind: st.session.kind, Codecs: media.CloneCodecs(negotiated)})
	}
	return nil
}

func (st *Stream) RemoteCodecs() []media.Codec {
	st.mu.Lock()
	defer st.mu.Unlock()
	return media.CloneCodecs(st.remote)
}

func (st *Stream) NegotiatedCodecs() []media.Codec {
	st.mu.Lock()
	defer st.mu.Unlock()
	return media.CloneCodecs(st.negotiated)
}

// Close stops the transport. Safe to call more than once.
func (st *Stream) Close() error {
	var err error
	st.closeOnce.Do(func() {
		st.session.forget(st)
		// Stopping the transport also closes its gatherer.
		if e := st.transport.Stop(); e != nil {
			err = errors.Wrap(e, "stopping ICE transport")
		}
	})
	return err
}
