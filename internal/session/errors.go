// Package session owns participant lifecycle: the registry that routes
// signaling messages to negotiation coordinators, the controller that
// orders startup and teardown per role, and the render-surface rendezvous.
package session

import "github.com/pkg/errors"

var (
	ErrDuplicateParticipant = errors.New("participant already registered")
	ErrUnknownParticipant   = errors.New("unknown participant")
	ErrUnknownMedia         = errors.New("media kind not configured")
	ErrFatalDisconnect      = errors.New("disconnected from server")
	ErrSurfaceCancelled     = errors.New("render surface cancelled")
)
