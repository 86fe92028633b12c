// Package engine implements the media contracts on top of pion/webrtc's
// ORTC objects: a MediaEngine carrying the codec table of one media kind,
// and one ICEGatherer/ICETransport pair per remote participant.
package engine

import (
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/util"
)

// Options configures a Session.
type Options struct {
	STUNServers []string
	// Controlling selects the ICE role of every stream; the server controls.
	Controlling bool
}

// Session is the media.Session of one kind.
type Session struct {
	kind        media.Kind
	api         *webrtc.API
	iceServers  []webrtc.ICEServer
	controlling bool
	log         util.Logger

	mu      sync.Mutex
	local   []media.Codec
	handler func(media.Event)
	streams map[*Stream]struct{}
}

var _ media.Session = (*Session)(nil)

// NewSession builds the pion API for kind with its default codec table.
func NewSession(kind media.Kind, opts Options) (*Session, error) {
	if !kind.Valid() {
		return nil, errors.Errorf("invalid media kind %s", kind)
	}
	m := &webrtc.MediaEngine{}
	local, err := registerCodecs(m, kind)
	if err != nil {
		return nil, errors.Wrapf(err, "registering %s codecs", kind)
	}
	se := webrtc.SettingEngine{LoggerFactory: loggerFactory{}}

	return &Session{
		kind:        kind,
		api:         webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithSettingEngine(se)),
		iceServers:  iceServers(opts.STUNServers),
		controlling: opts.Controlling,
		log:         util.Scoped("engine/%s", kind),
		local:       local,
		streams:     make(map[*Stream]struct{}),
	}, nil
}

func (s *Session) Kind() media.Kind { return s.kind }

// LocalCodecs returns the local codec list in preference order.
func (s *Session) LocalCodecs() []media.Codec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return media.CloneCodecs(s.local)
}

func (s *Session) CodecsNeedResend(previous, current []media.Codec) bool {
	return codecsNeedResend(previous, current)
}

// SetSendCodec moves codec id to the front of the local list and reports
// the change to the session handler.
func (s *Session) SetSendCodec(id int) error {
	s.mu.Lock()
	reordered, ok := moveToFront(s.local, id)
	if !ok {
		s.mu.Unlock()
		return errors.Wrapf(media.ErrEngineRejected, "no %s codec with id %d", s.kind, id)
	}
	s.local = reordered
	handler := s.handler
	s.mu.Unlock()

	s.log.Infof("send codec set to %s", reordered[0])
	if handler != nil {
		handler(media.Event{Type: media.EventSessionCodecsChanged, Kind: s.kind})
	}
	return nil
}

func (s *Session) OnEvent(fn func(media.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

// NewStream creates the gatherer and transport toward one participant. A
// stream must at least send or receive.
func (s *Session) NewStream(participantID int, dir media.Direction) (media.Stream, error) {
	if dir == media.DirectionNone {
		return nil, errors.Wrapf(media.ErrEngineRejected, "%s stream for participant %d has no direction", s.kind, participantID)
	}
	gatherer, err := s.api.NewICEGatherer(webrtc.ICEGatherOptions{ICEServers: s.iceServers})
	if err != nil {
		return nil, errors.Wrapf(err, "creating ICE gatherer for participant %d", participantID)
	}
	st := newStream(s, participantID, gatherer, s.api.NewICETransport(gatherer))
	s.log.Debugf("stream toward p%d (%s)", participantID, dir)

	s.mu.Lock()
	s.streams[st] = struct{}{}
	s.mu.Unlock()
	return st, nil
}

func (s *Session) forget(st *Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streams, st)
}

// Close releases every stream still open.
func (s *Session) Close() error {
	s.mu.Lock()
	streams := make([]*Stream, 0, len(s.streams))
	for st := range s.streams {
		streams = append(streams, st)
	}
	s.mu.Unlock()

	var errs []error
	for _, st := range streams {
		if err := st.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrapf(errs[0], "closing %d of %d %s streams failed", len(errs), len(streams), s.kind)
	}
	return nil
}
