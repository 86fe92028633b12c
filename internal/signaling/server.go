package signaling

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/1ureka/peercall/internal/util"
)

// Path is the HTTP path the signaling endpoint is served on.
const Path = "/ws"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server accepts signaling connections from any number of clients.
type Server struct {
	listener net.Listener
	connCh   chan *Channel
	closed   chan struct{}
	mux      *http.ServeMux

	closeOnce sync.Once
}

// NewServer creates a server; call Start to listen or mount Handler.
func NewServer() *Server {
	s := &Server{
		connCh: make(chan *Channel),
		closed: make(chan struct{}),
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc(Path, s.handleWS)
	return s
}

// Handler returns the HTTP handler serving Path.
func (s *Server) Handler() http.Handler { return s.mux }

// Start listens on the given port (0 picks a free one) and returns the
// bound port.
func (s *Server) Start(port uint16) (int, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("failed to start signaling server: %w", err)
	}
	s.listener = listener

	go func() {
		_ = http.Serve(listener, s.mux)
	}()

	return listener.Addr().(*net.TCPAddr).Port, nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.LogWarning("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	ch := newChannel(conn)

	select {
	case s.connCh <- ch:
		util.LogDebug("[%s] signaling connection from %s", ch.Tag(), r.RemoteAddr)
	case <-s.closed:
		ch.Close()
	}
}

// Accept blocks until a client connects, the server closes, or ctx is done.
func (s *Server) Accept(ctx context.Context) (*Channel, error) {
	select {
	case ch := <-s.connCh:
		return ch, nil
	case <-s.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting connections. Channels already accepted stay open.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.listener != nil {
			s.listener.Close()
		}
	})
}
