package session

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/config"
	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/negotiation"
	"github.com/1ureka/peercall/internal/protocol"
	"github.com/1ureka/peercall/internal/util"
)

// Channel is the signaling link to one remote participant.
type Channel interface {
	negotiation.Outbox

	// OnMessage sets the inbound handler; it must be called before Start.
	OnMessage(fn func(*protocol.Message))
	// Start begins reading inbound messages.
	Start()
	// Done is closed when the link is gone; Err then reports why.
	Done() <-chan struct{}
	Err() error
	Close() error
}

// ControllerConfig selects the role and the media sessions of a process.
type ControllerConfig struct {
	Role        config.Role
	Transmitter config.Transmitter
	Sessions    []media.Session
	Display     Display
}

// Controller orders participant startup and teardown for one role.
type Controller struct {
	role     config.Role
	instance string
	registry *Registry
	display  Display
	ids      *idAllocator

	mu       sync.Mutex
	channels map[int]Channel

	closing   atomic.Bool
	fatal     chan error
	fatalOnce sync.Once
}

// NewController creates a controller and its registry.
func NewController(cfg ControllerConfig) *Controller {
	display := cfg.Display
	if display == nil {
		display = nopDisplay{}
	}
	policy := negotiation.PolicyAdd
	if cfg.Transmitter.ForceCandidates() {
		policy = negotiation.PolicyForce
	}
	return &Controller{
		role:     cfg.Role,
		instance: uuid.NewString(),
		display:  display,
		ids:      newIDAllocator(),
		channels: make(map[int]Channel),
		fatal:    make(chan error, 1),
		registry: NewRegistry(RegistryConfig{
			Sessions: cfg.Sessions,
			Policy:   policy,
			Server:   cfg.Role == config.RoleServer,
			Display:  display,
		}),
	}
}

// Instance returns the random id of this process, announced in welcome
// messages.
func (c *Controller) Instance() string { return c.instance }

// Registry returns the participant registry.
func (c *Controller) Registry() *Registry { return c.registry }

// Fatal delivers at most one error wrapping ErrFatalDisconnect.
func (c *Controller) Fatal() <-chan error { return c.fatal }

// Accept registers a newly connected client under a fresh id (server role),
// replays the codecs already negotiated by the other participants and
// starts reading from ch.
func (c *Controller) Accept(ch Channel) (int, error) {
	if c.role != config.RoleServer {
		return 0, errors.New("accept is only valid in the server role")
	}
	id := c.ids.Next()
	ch.Send(protocol.NewWelcome(id, c.instance))

	if _, err := c.registry.AddParticipant(id, ch); err != nil {
		ch.Close()
		return 0, err
	}
	if n := c.registry.SendCodecsTo(id); n > 0 {
		util.LogDebug("replayed %d codec lists to participant %d", n, id)
	}
	c.serve(id, ch)
	return id, nil
}

// Connect registers the server as the sole participant (client role) and
// latches its coordinators ready to send local codecs.
func (c *Controller) Connect(ch Channel) error {
	if c.role != config.RoleClient {
		return errors.New("connect is only valid in the client role")
	}
	p, err := c.registry.AddParticipant(ServerPeerID, ch)
	if err != nil {
		return err
	}
	c.serve(ServerPeerID, ch)
	p.markReady()
	return nil
}

func (c *Controller) serve(id int, ch Channel) {
	c.mu.Lock()
	c.channels[id] = ch
	c.mu.Unlock()

	ch.OnMessage(func(msg *protocol.Message) { c.handleMessage(id, msg) })
	ch.Start()
	go func() {
		<-ch.Done()
		c.HandleDisconnect(id, ch.Err())
	}()
}

func (c *Controller) handleMessage(id int, msg *protocol.Message) {
	if !msg.IsMedia() {
		if c.role == config.RoleClient && id == ServerPeerID {
			util.LogInfo("server %s assigned us participant id %d", msg.Instance, msg.ID)
		} else {
			util.LogWarning("unexpected %s from participant %d", msg.Type, id)
		}
		return
	}
	if err := c.registry.Route(id, msg); err != nil {
		util.LogWarning("dropping message: %v", err)
	}
}

// HandleDisconnect removes the participant behind a closed link. Losing the
// server in the client role is fatal: the returned error wraps
// ErrFatalDisconnect and is also delivered on Fatal.
func (c *Controller) HandleDisconnect(id int, cause error) error {
	c.mu.Lock()
	ch := c.channels[id]
	delete(c.channels, id)
	c.mu.Unlock()
	if ch != nil {
		ch.Close()
	}

	c.registry.RemoveParticipant(id)

	if c.closing.Load() || c.role != config.RoleClient || id != ServerPeerID {
		return nil
	}
	err := errors.Wrap(ErrFatalDisconnect, "server link lost")
	if cause != nil {
		err = errors.Wrapf(ErrFatalDisconnect, "server link lost: %v", cause)
	}
	c.fatalOnce.Do(func() {
		c.display.OnFatalDisconnect(err)
		c.fatal <- err
	})
	return err
}

// Close tears down every participant without raising a fatal condition.
func (c *Controller) Close() {
	c.closing.Store(true)

	c.mu.Lock()
	channels := c.channels
	c.channels = make(map[int]Channel)
	c.mu.Unlock()

	for _, ch := range channels {
		ch.Close()
	}
	c.registry.Close()
}
