package signaling

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

// URL builds the signaling URL of a server. An address that already
// carries a ws:// or wss:// scheme is used as is.
func URL(address string, port uint16) string {
	address = strings.TrimSpace(address)
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		return address
	}
	return "ws://" + net.JoinHostPort(address, strconv.Itoa(int(port))) + Path
}

// Dial connects to a signaling server and returns the channel to it.
func Dial(ctx context.Context, url string) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to signaling server: %w", err)
	}
	return newChannel(conn), nil
}
