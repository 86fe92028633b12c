package session

import (
	"context"
	"sync"
)

// SurfaceHandle identifies the render target a video stream is attached to.
type SurfaceHandle uint64

// Surface is a single-writer, single-reader handoff of a SurfaceHandle
// from the user interface to the media side. It resolves exactly once,
// either with a handle or cancelled.
type Surface struct {
	once   sync.Once
	ready  chan struct{}
	handle SurfaceHandle
	err    error
}

func newSurface() *Surface {
	return &Surface{ready: make(chan struct{})}
}

// Provide resolves the surface with h. It reports false if the surface was
// already resolved or cancelled.
func (s *Surface) Provide(h SurfaceHandle) bool {
	return s.resolve(h, nil)
}

// Cancel wakes every waiter with ErrSurfaceCancelled. Safe to call at any
// time and any number of times.
func (s *Surface) Cancel() bool {
	return s.resolve(0, ErrSurfaceCancelled)
}

func (s *Surface) resolve(h SurfaceHandle, err error) bool {
	resolved := false
	s.once.Do(func() {
		s.handle, s.err = h, err
		close(s.ready)
		resolved = true
	})
	return resolved
}

// Wait blocks until the surface is provided, cancelled, or ctx is done.
func (s *Surface) Wait(ctx context.Context) (SurfaceHandle, error) {
	select {
	case <-s.ready:
		return s.handle, s.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
