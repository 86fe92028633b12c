package signaling

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/protocol"
)

// pair starts a server behind httptest and returns both ends of one link.
func pair(t *testing.T) (server, client *Channel, url string) {
	t.Helper()
	srv := NewServer()
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		hs.Close()
	})

	url = "ws" + strings.TrimPrefix(hs.URL, "http") + Path
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	server, err = srv.Accept(ctx)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return server, client, url
}

func collect(ch *Channel) <-chan *protocol.Message {
	out := make(chan *protocol.Message, 16)
	ch.OnMessage(func(m *protocol.Message) { out <- m })
	ch.Start()
	return out
}

func recv(t *testing.T, in <-chan *protocol.Message) *protocol.Message {
	t.Helper()
	select {
	case m := <-in:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestMessagesFlowBothWays(t *testing.T) {
	server, client, _ := pair(t)
	fromClient := collect(server)
	fromServer := collect(client)

	server.Send(protocol.NewWelcome(2, "instance"))
	client.Send(protocol.NewCandidatesDone(media.KindAudio))
	client.Send(protocol.NewCodecs(media.KindAudio, []media.Codec{{ID: 0, Name: "PCMU", ClockRate: 8000}}))

	if m := recv(t, fromServer); m.Type != protocol.TypeWelcome || m.ID != 2 {
		t.Errorf("unexpected welcome %+v", m)
	}
	if m := recv(t, fromClient); m.Type != protocol.TypeCandidatesDone {
		t.Errorf("unexpected first message %+v", m)
	}
	if m := recv(t, fromClient); m.Type != protocol.TypeCodecs || len(m.Codecs) != 1 {
		t.Errorf("order not preserved, got %+v", m)
	}
}

// TestInvalidFramesAreSkipped verifies a malformed frame does not stop the
// read loop.
func TestInvalidFramesAreSkipped(t *testing.T) {
	server, client, _ := pair(t)
	in := collect(server)

	if err := client.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)); err != nil {
		t.Fatalf("raw write failed: %v", err)
	}
	client.Send(protocol.NewCandidatesDone(media.KindVideo))

	if m := recv(t, in); m.Type != protocol.TypeCandidatesDone || m.Media != media.KindVideo {
		t.Errorf("unexpected message %+v", m)
	}
}

func TestRemoteCloseReportsDisconnect(t *testing.T) {
	server, client, _ := pair(t)
	collect(server)
	client.Close()

	select {
	case <-server.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("server side not notified")
	}
	if !errors.Is(server.Err(), ErrTransportDisconnect) {
		t.Errorf("expected ErrTransportDisconnect, got %v", server.Err())
	}
	if !errors.Is(client.Err(), ErrClosed) {
		t.Errorf("expected ErrClosed locally, got %v", client.Err())
	}
	client.Send(protocol.NewCandidatesDone(media.KindAudio))
}

// TestStalledPeerDoesNotBlockSend fills the link toward a client that never
// reads. Send must keep returning immediately and the channel must fail with
// ErrTransportDisconnect once the outbox overflows.
func TestStalledPeerDoesNotBlockSend(t *testing.T) {
	server, _, _ := pair(t)
	big := []media.Codec{{ID: 111, Name: "opus", ClockRate: 48000, Channels: 2,
		Params: map[string]string{"pad": strings.Repeat("a", 64<<10)}}}

	start := time.Now()
	for range 2000 {
		server.Send(protocol.NewCodecs(media.KindAudio, big))
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Send blocked for %s", elapsed)
	}

	select {
	case <-server.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("channel toward a stalled peer never failed")
	}
	if !errors.Is(server.Err(), ErrTransportDisconnect) {
		t.Errorf("expected ErrTransportDisconnect, got %v", server.Err())
	}
}

func TestAcceptAfterClose(t *testing.T) {
	srv := NewServer()
	srv.Close()
	srv.Close()
	if _, err := srv.Accept(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestURL(t *testing.T) {
	cases := map[string]string{
		"192.168.1.5":          "ws://192.168.1.5:9893/ws",
		"::1":                  "ws://[::1]:9893/ws",
		"wss://example.com/ws": "wss://example.com/ws",
	}
	for in, want := range cases {
		if got := URL(in, 9893); got != want {
			t.Errorf("URL(%q) = %q, want %q", in, got, want)
		}
	}
}
