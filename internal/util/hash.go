// Package util provides shared utility functions.
package util

import (
	"fmt"
	"hash/fnv"
	"net"
)

// AddrTag derives a short, stable tag from a connection's address pair.
// It only labels log lines and carries no protocol meaning.
func AddrTag(local, remote net.Addr) string {
	h := fnv.New32a()
	if local != nil {
		h.Write([]byte(local.String()))
	}
	if remote != nil {
		h.Write([]byte(remote.String()))
	}
	return fmt.Sprintf("%08x", h.Sum32())
}
