// Package signaling carries signaling messages over WebSocket text frames:
// a server accepting any number of peers, a client dialer, and the Channel
// wrapping one connection with a single-writer outbox and a read loop.
package signaling

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/protocol"
	"github.com/1ureka/peercall/internal/util"
)

var (
	// ErrTransportDisconnect reports that the remote side went away.
	ErrTransportDisconnect = errors.New("signaling transport disconnected")
	// ErrClosed reports that the channel was closed locally.
	ErrClosed = errors.New("signaling channel closed")
)

const (
	outboxSize   = 256 // outgoing message queue capacity
	writeTimeout = 10 * time.Second
	closeTimeout = time.Second
)

// Channel is a reliable, ordered message link to one remote participant.
type Channel struct {
	conn *websocket.Conn
	tag  string

	outbox    chan *protocol.Message
	onMessage func(*protocol.Message)

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	closeOnce sync.Once
	err       error
}

// newChannel wraps conn and starts its writer. Reading starts with Start.
func newChannel(conn *websocket.Conn) *Channel {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		conn:   conn,
		tag:    util.AddrTag(conn.LocalAddr(), conn.RemoteAddr()),
		outbox: make(chan *protocol.Message, outboxSize),
		ctx:    ctx,
		cancel: cancel,
	}
	go c.writeLoop()
	return c
}

// Tag returns a short identifier of the underlying connection for logs.
func (c *Channel) Tag() string { return c.tag }

// Send enqueues msg for transmission and never blocks. A peer that lets the
// outbox fill up has stopped reading, so the channel fails with
// ErrTransportDisconnect instead of silently losing negotiation state.
// Sends after the channel stopped are dropped.
func (c *Channel) Send(msg *protocol.Message) {
	select {
	case <-c.ctx.Done():
		return
	default:
	}

	select {
	case c.outbox <- msg:
	default:
		util.LogWarning("[%s] outbox full, dropping peer", c.tag)
		c.fail(errors.Wrapf(ErrTransportDisconnect, "outbox full (%d messages)", outboxSize))
	}
}

// OnMessage sets the handler for inbound messages. Call it before Start.
func (c *Channel) OnMessage(fn func(*protocol.Message)) {
	c.onMessage = fn
}

// Start launches the read loop. Subsequent calls do nothing.
func (c *Channel) Start() {
	c.startOnce.Do(func() { go c.readLoop() })
}

// Done is closed when the channel stops for any reason.
func (c *Channel) Done() <-chan struct{} { return c.ctx.Done() }

// Err reports why the channel stopped: ErrClosed after a local Close, or an
// error wrapping ErrTransportDisconnect. It is nil while the channel runs.
func (c *Channel) Err() error {
	select {
	case <-c.ctx.Done():
		return c.err
	default:
		return nil
	}
}

// Close sends a close frame and tears the connection down.
func (c *Channel) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeTimeout))
	c.fail(ErrClosed)
	return nil
}

// fail records the first cause, cancels the loops and closes the socket.
func (c *Channel) fail(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		c.cancel()
		c.conn.Close()
	})
}

// writeLoop is the single writer of the connection.
func (c *Channel) writeLoop() {
	for {
		select {
		case msg := <-c.outbox:
			data, err := protocol.Encode(msg)
			if err != nil {
				util.LogError("[%s] dropping outbound %s: %v", c.tag, msg.Type, err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.fail(errors.Wrapf(ErrTransportDisconnect, "write: %v", err))
				return
			}
			util.Stats.AddSent(len(data))
		case <-c.ctx.Done():
			return
		}
	}
}

// readLoop decodes inbound frames until the connection fails. Invalid
// frames are logged and skipped.
func (c *Channel) readLoop() {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(errors.Wrapf(ErrTransportDisconnect, "read: %v", err))
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		util.Stats.AddRecv(len(data))

		msg, err := protocol.Decode(data)
		if err != nil {
			util.LogWarning("[%s] %v", c.tag, err)
			continue
		}
		if c.onMessage != nil {
			c.onMessage(msg)
		}
	}
}
