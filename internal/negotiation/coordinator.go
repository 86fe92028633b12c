// Package negotiation implements the per-stream state machine that bridges a
// media engine stream and the signaling channel of one remote participant.
//
// A Coordinator is goroutine-local: every method except ForwardStreamCodecs
// and SendCodecsTo must be called from the single goroutine that owns the
// participant (see session.Participant). Engine callbacks never call it
// directly; they post events to that goroutine.
package negotiation

import (
	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/protocol"
	"github.com/1ureka/peercall/internal/util"
)

// Outbox is the fire-and-forget sink toward one remote participant.
// Send must not block and must be safe for concurrent use.
type Outbox interface {
	Send(msg *protocol.Message)
}

// Relay fans negotiated codecs of one participant out to every other
// registered participant. The coordinator only knows its peers by id.
type Relay interface {
	RelayStreamCodecs(from int, kind media.Kind, codecs []media.Codec)
}

// Display receives the values the coordinator exposes to the user interface.
// Calls arrive from participant goroutines and may be concurrent.
type Display interface {
	OnCodecsChangedForDisplay(participantID int, kind media.Kind, codecs []media.Codec)
	OnNewLocalCandidateForDisplay(participantID int, kind media.Kind, candidate media.Candidate)
}

// CandidatePolicy decides how a batch of remote candidates is applied.
type CandidatePolicy int

const (
	// PolicyAdd augments the engine's own discovered candidates.
	PolicyAdd CandidatePolicy = iota
	// PolicyForce makes the remote batch authoritative.
	PolicyForce
)

func (p CandidatePolicy) String() string {
	if p == PolicyForce {
		return "force"
	}
	return "add"
}

// Config wires a Coordinator to its collaborators.
type Config struct {
	ParticipantID int
	Kind          media.Kind
	Session       media.Session
	Stream        media.Stream
	Outbox        Outbox
	Relay         Relay   // nil disables relaying
	Display       Display // nil discards display updates
	Policy        CandidatePolicy
	Server        bool // relay is only performed in the server role
}

// Coordinator is the negotiation state of one (participant, media kind).
type Coordinator struct {
	id      int
	kind    media.Kind
	session media.Session
	stream  media.Stream
	out     Outbox
	relay   Relay
	display Display
	policy  CandidatePolicy
	server  bool
	log     util.Logger

	candidatesPrepared bool
	pendingRemote      []media.Candidate
	lastSentLocal      []media.Codec // nil until the first send
	readyToSend        bool          // one-way latch
	lastNegotiated     []media.Codec // last list relayed to other participants

	events   map[media.EventType]func(media.Event)
	messages map[protocol.MessageType]func(*protocol.Message)
}

// New creates a Coordinator. It does not subscribe to the stream; the owner
// forwards events through HandleEvent.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		id:      cfg.ParticipantID,
		kind:    cfg.Kind,
		session: cfg.Session,
		stream:  cfg.Stream,
		out:     cfg.Outbox,
		relay:   cfg.Relay,
		display: cfg.Display,
		policy:  cfg.Policy,
		server:  cfg.Server,
		log:     util.Scoped("p%d/%s", cfg.ParticipantID, cfg.Kind),
	}

	c.events = map[media.EventType]func(media.Event){
		media.EventLocalCandidate:          func(ev media.Event) { c.OnLocalCandidate(ev.Candidate) },
		media.EventLocalCandidatesPrepared: func(media.Event) { c.OnLocalCandidatesPrepared() },
		media.EventRemoteCodecsChanged:     func(ev media.Event) { c.OnRemoteCodecsChanged(ev.Codecs) },
		media.EventSessionCodecsChanged:    func(media.Event) { c.OnSessionCodecsChanged() },
	}
	c.messages = map[protocol.MessageType]func(*protocol.Message){
		protocol.TypeCandidate:      func(m *protocol.Message) { c.ReceiveCandidate(*m.Candidate) },
		protocol.TypeCandidatesDone: func(*protocol.Message) { c.ReceiveCandidatesDone() },
		protocol.TypeCodecs:         func(m *protocol.Message) { c.ReceiveRemoteCodecs(m.Codecs) },
		protocol.TypeStreamCodecs:   func(m *protocol.Message) { c.ReceiveStreamCodecs(m.From, m.Codecs) },
	}
	return c
}

func (c *Coordinator) ParticipantID() int { return c.id }
func (c *Coordinator) Kind() media.Kind   { return c.kind }

// HandleEvent dispatches one engine event. It reports false for event types
// the coordinator does not consume.
func (c *Coordinator) HandleEvent(ev media.Event) bool {
	h, ok := c.events[ev.Type]
	if !ok {
		return false
	}
	h(ev)
	return true
}

// HandleMessage dispatches one inbound signaling message addressed to this
// stream. Messages of other types are logged and dropped.
func (c *Coordinator) HandleMessage(msg *protocol.Message) {
	h, ok := c.messages[msg.Type]
	if !ok {
		c.log.Warnf("dropping %s message", msg.Type)
		return
	}
	h(msg)
}

// ---------------------------------------------------------------------------
// Engine events
// ---------------------------------------------------------------------------

// OnLocalCandidate forwards a discovered candidate immediately.
func (c *Coordinator) OnLocalCandidate(cand media.Candidate) {
	c.log.Debugf("local candidate %s (%s)", cand, cand.Family())
	if c.display != nil {
		c.display.OnNewLocalCandidateForDisplay(c.id, c.kind, cand)
	}
	c.out.Send(protocol.NewCandidate(c.kind, cand))
}

// OnLocalCandidatesPrepared emits candidates-done once per stream lifetime.
func (c *Coordinator) OnLocalCandidatesPrepared() {
	if c.candidatesPrepared {
		c.log.Debugf("candidates already prepared, ignoring")
		return
	}
	c.candidatesPrepared = true
	c.log.Debugf("local candidates prepared")
	c.out.Send(protocol.NewCandidatesDone(c.kind))
}

// OnRemoteCodecsChanged refreshes the display and relays the stream's
// negotiated codecs to the other participants.
func (c *Coordinator) OnRemoteCodecsChanged(codecs []media.Codec) {
	if c.display != nil {
		c.display.OnCodecsChangedForDisplay(c.id, c.kind, codecs)
	}
	c.SendStreamCodecsToOthers()
}

// OnSessionCodecsChanged re-evaluates whether local codecs must be sent.
func (c *Coordinator) OnSessionCodecsChanged() {
	c.CheckSendLocalCodecs()
}

// ---------------------------------------------------------------------------
// Signaling messages
// ---------------------------------------------------------------------------

// ReceiveCandidate buffers a remote candidate until candidates-done.
func (c *Coordinator) ReceiveCandidate(cand media.Candidate) {
	c.pendingRemote = append(c.pendingRemote, cand)
}

// ReceiveCandidatesDone hands the buffered candidates to the engine in one
// call, using the configured policy, and clears the buffer.
//
// An empty buffer makes no engine call, so a repeated candidates-done is a
// no-op rather than a second, empty flush.
func (c *Coordinator) ReceiveCandidatesDone() {
	if len(c.pendingRemote) == 0 {
		c.log.Debugf("candidates-done with no buffered candidates")
		return
	}
	batch := c.pendingRemote
	c.pendingRemote = nil

	var err error
	if c.policy == PolicyForce {
		err = c.stream.ForceRemoteCandidates(batch)
	} else {
		err = c.stream.AddRemoteCandidates(batch)
	}
	if err != nil {
		c.log.Warnf("applying %d remote candidates (%s): %v", len(batch), c.policy, err)
		return
	}
	c.log.Debugf("applied %d remote candidates (%s)", len(batch), c.policy)
}

// ReceiveRemoteCodecs applies a new remote codec list. An unchanged list is
// a no-op. A rejected list is logged and otherwise ignored this round.
func (c *Coordinator) ReceiveRemoteCodecs(codecs []media.Codec) {
	if media.CodecsEqual(codecs, c.stream.RemoteCodecs()) {
		c.log.Debugf("remote codecs unchanged")
		return
	}
	if err := c.stream.SetRemoteCodecs(codecs); err != nil {
		c.log.Warnf("setting %d remote codecs: %v", len(codecs), err)
	}
	c.SendLocalCodecs()
	c.SendStreamCodecsToOthers()
}

// ReceiveStreamCodecs shows the negotiated codecs of another participant,
// relayed by the server.
func (c *Coordinator) ReceiveStreamCodecs(from int, codecs []media.Codec) {
	if c.server {
		c.log.Warnf("ignoring stream-codecs of p%d: relays only flow from the server", from)
		return
	}
	if c.display != nil {
		c.display.OnCodecsChangedForDisplay(from, c.kind, codecs)
	}
}

// ---------------------------------------------------------------------------
// Outbound codecs
// ---------------------------------------------------------------------------

// SendLocalCodecs latches the coordinator ready and sends local codecs if
// they need sending.
func (c *Coordinator) SendLocalCodecs() {
	c.readyToSend = true
	c.CheckSendLocalCodecs()
}

// CheckSendLocalCodecs sends the session's local codecs when the latch is
// set, the list is non-empty, and it either changed since the last send or
// the engine asks for a resend.
func (c *Coordinator) CheckSendLocalCodecs() {
	if !c.readyToSend {
		return
	}
	local := c.session.LocalCodecs()
	if len(local) == 0 {
		c.log.Debugf("local codecs not ready yet")
		return
	}
	if c.lastSentLocal != nil &&
		media.CodecsEqual(local, c.lastSentLocal) &&
		!c.session.CodecsNeedResend(c.lastSentLocal, local) {
		return
	}
	c.lastSentLocal = media.CloneCodecs(local)
	c.log.Debugf("sending %d local codecs", len(local))
	c.out.Send(protocol.NewCodecs(c.kind, local))
}

// SendStreamCodecsToOthers relays this stream's negotiated codecs to every
// other participant. Only the server relays, and each distinct list is
// relayed once: both the remote codecs message and the engine's change
// event lead here. Late joiners are covered by SendCodecsTo.
func (c *Coordinator) SendStreamCodecsToOthers() {
	if !c.server || c.relay == nil {
		return
	}
	codecs := c.stream.NegotiatedCodecs()
	if len(codecs) == 0 || media.CodecsEqual(codecs, c.lastNegotiated) {
		return
	}
	c.lastNegotiated = media.CloneCodecs(codecs)
	c.relay.RelayStreamCodecs(c.id, c.kind, codecs)
}

// ForwardStreamCodecs sends the negotiated codecs of participant from to this
// coordinator's remote. It touches no mutable state and may be called from
// any goroutine.
func (c *Coordinator) ForwardStreamCodecs(from int, codecs []media.Codec) {
	if from == c.id || len(codecs) == 0 {
		return
	}
	c.out.Send(protocol.NewStreamCodecs(c.kind, from, codecs))
}

// SendCodecsTo replays this stream's negotiated codecs to target, so a
// participant that joins late learns the current codec state. It reads
// only engine state and may be called from any goroutine.
func (c *Coordinator) SendCodecsTo(target *Coordinator) bool {
	if target == nil || target == c {
		return false
	}
	codecs := c.stream.NegotiatedCodecs()
	if len(codecs) == 0 {
		return false
	}
	target.ForwardStreamCodecs(c.id, codecs)
	return true
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// ReadyToSend reports the state of the send latch.
func (c *Coordinator) ReadyToSend() bool { return c.readyToSend }

// PendingRemoteCandidates returns how many remote candidates are buffered.
func (c *Coordinator) PendingRemoteCandidates() int { return len(c.pendingRemote) }

// LastSentLocalCodecs returns the list last sent to the remote, or nil.
func (c *Coordinator) LastSentLocalCodecs() []media.Codec { return c.lastSentLocal }

// LastRelayedCodecs returns the list last relayed to other participants.
func (c *Coordinator) LastRelayedCodecs() []media.Codec { return c.lastNegotiated }
