package session

import "sync/atomic"

// ServerPeerID is the id a client uses for the server, and the id no server
// ever assigns.
const ServerPeerID = 1

// idAllocator hands out participant ids. The first call to Next returns 2.
type idAllocator struct {
	val atomic.Int64
}

func newIDAllocator() *idAllocator {
	a := &idAllocator{}
	a.val.Store(ServerPeerID)
	return a
}

// Next returns the next participant id (monotonically increasing from 2).
func (a *idAllocator) Next() int {
	return int(a.val.Add(1))
}
