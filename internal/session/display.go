package session

import (
	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/negotiation"
)

// Display is the user-interface sink of a running session. Every method may
// be called concurrently from participant goroutines and must not block.
type Display interface {
	negotiation.Display

	// OnFatalDisconnect reports the single fatal condition of a client.
	OnFatalDisconnect(err error)

	// OnLocalCodecsChanged shows the current local codec list of a session.
	OnLocalCodecsChanged(kind media.Kind, codecs []media.Codec)

	// RealizeSurface creates the render surface of a participant and calls
	// provide from the interface's own goroutine once it exists.
	RealizeSurface(participantID int, provide func(SurfaceHandle))

	// AttachVideo reports that remote video of a participant is bound to
	// its surface.
	AttachVideo(participantID int, handle SurfaceHandle)

	// ParticipantLeft removes a participant from the interface.
	ParticipantLeft(participantID int)
}

// nopDisplay discards every update.
type nopDisplay struct{}

func (nopDisplay) OnCodecsChangedForDisplay(int, media.Kind, []media.Codec)       {}
func (nopDisplay) OnNewLocalCandidateForDisplay(int, media.Kind, media.Candidate) {}
func (nopDisplay) OnFatalDisconnect(error)                                        {}
func (nopDisplay) OnLocalCodecsChanged(media.Kind, []media.Codec)                 {}
func (nopDisplay) RealizeSurface(int, func(SurfaceHandle))                        {}
func (nopDisplay) AttachVideo(int, SurfaceHandle)                                 {}
func (nopDisplay) ParticipantLeft(int)                                            {}
