// Package ui renders a running session in the terminal with pterm and reads
// user commands from standard input.
package ui

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/session"
	"github.com/1ureka/peercall/internal/util"
)

// Terminal is the session.Display of the command-line program. Each
// participant gets a numbered render surface.
type Terminal struct {
	mu       sync.Mutex
	local    map[media.Kind][]media.Codec
	received map[int]map[media.Kind][]media.Codec
	surfaces map[int]session.SurfaceHandle
	attached map[int]bool
	next     session.SurfaceHandle
}

var _ session.Display = (*Terminal)(nil)

func NewTerminal() *Terminal {
	return &Terminal{
		local:    make(map[media.Kind][]media.Codec),
		received: make(map[int]map[media.Kind][]media.Codec),
		surfaces: make(map[int]session.SurfaceHandle),
		attached: make(map[int]bool),
	}
}

func (t *Terminal) OnCodecsChangedForDisplay(id int, kind media.Kind, codecs []media.Codec) {
	t.mu.Lock()
	byKind, ok := t.received[id]
	if !ok {
		byKind = make(map[media.Kind][]media.Codec)
		t.received[id] = byKind
	}
	byKind[kind] = media.CloneCodecs(codecs)
	t.mu.Unlock()

	util.LogInfo("participant %d %s codecs: %s", id, kind, codecSummary(codecs))
}

func (t *Terminal) OnNewLocalCandidateForDisplay(id int, kind media.Kind, c media.Candidate) {
	util.LogDebug("[p%d/%s] new %s candidate %s", id, kind, c.Family(), c)
}

func (t *Terminal) OnFatalDisconnect(err error) {
	pterm.Error.Println(fmt.Sprintf("Disconnected from server: %v", err))
}

func (t *Terminal) OnLocalCodecsChanged(kind media.Kind, codecs []media.Codec) {
	t.mu.Lock()
	t.local[kind] = media.CloneCodecs(codecs)
	t.mu.Unlock()

	util.LogInfo("local %s codecs: %s", kind, codecSummary(codecs))
}

// RealizeSurface allocates the next surface number and reports it from a
// separate goroutine, the way a widget toolkit reports a realized window.
// The handle is recorded before the participant can leave, so
// ParticipantLeft always removes it.
func (t *Terminal) RealizeSurface(id int, provide func(session.SurfaceHandle)) {
	t.mu.Lock()
	t.next++
	h := t.next
	t.surfaces[id] = h
	t.mu.Unlock()

	go provide(h)
}

func (t *Terminal) AttachVideo(id int, h session.SurfaceHandle) {
	t.mu.Lock()
	t.attached[id] = true
	t.mu.Unlock()
	util.LogSuccess("video of participant %d attached to surface #%d", id, h)
}

func (t *Terminal) ParticipantLeft(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.received, id)
	delete(t.surfaces, id)
	delete(t.attached, id)
}

// SetLocalCodecs seeds the local codec view before any change event.
func (t *Terminal) SetLocalCodecs(kind media.Kind, codecs []media.Codec) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.local[kind] = media.CloneCodecs(codecs)
}

// localTable lists the local codecs of every kind; the first entry of a
// kind is its send codec.
func (t *Terminal) localTable() pterm.TableData {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := pterm.TableData{{"Media", "ID", "Codec", "Send"}}
	for _, kind := range media.Kinds {
		for i, c := range t.local[kind] {
			send := ""
			if i == 0 {
				send = "*"
			}
			data = append(data, []string{kind.String(), fmt.Sprint(c.ID), codecLabel(c), send})
		}
	}
	return data
}

// receivedTable lists, per participant, the codecs last received.
func (t *Terminal) receivedTable() pterm.TableData {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]int, 0, len(t.received))
	for id := range t.received {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	data := pterm.TableData{{"Participant", "Media", "Codecs"}}
	for _, id := range ids {
		for _, kind := range media.Kinds {
			if codecs, ok := t.received[id][kind]; ok {
				data = append(data, []string{fmt.Sprint(id), kind.String(), codecSummary(codecs)})
			}
		}
	}
	return data
}

// peersTable lists the given participants with their surfaces.
func (t *Terminal) peersTable(ids []int) pterm.TableData {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := pterm.TableData{{"Participant", "Surface", "Video"}}
	for _, id := range ids {
		surface := "-"
		if h, ok := t.surfaces[id]; ok {
			surface = fmt.Sprintf("#%d", h)
		}
		video := "waiting"
		if t.attached[id] {
			video = "attached"
		}
		data = append(data, []string{fmt.Sprint(id), surface, video})
	}
	return data
}

func codecLabel(c media.Codec) string {
	s := fmt.Sprintf("%s/%d", c.Name, c.ClockRate)
	if c.Channels > 1 {
		s += fmt.Sprintf("/%d", c.Channels)
	}
	return s
}

func codecSummary(codecs []media.Codec) string {
	if len(codecs) == 0 {
		return "(none)"
	}
	labels := make([]string, len(codecs))
	for i, c := range codecs {
		labels[i] = codecLabel(c)
	}
	return strings.Join(labels, ", ")
}
