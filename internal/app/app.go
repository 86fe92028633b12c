// Package app contains the top-level orchestration for the server and client
// roles.
package app

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/config"
	"github.com/1ureka/peercall/internal/engine"
	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/session"
	"github.com/1ureka/peercall/internal/ui"
	"github.com/1ureka/peercall/internal/util"
)

// runtime bundles what both roles build before any participant exists:
// sessions first, then the controller that creates streams from them.
type runtime struct {
	sessions   []media.Session
	terminal   *ui.Terminal
	controller *session.Controller
	console    *ui.Console
}

func newRuntime(cfg config.Config) (*runtime, error) {
	rt := &runtime{terminal: ui.NewTerminal()}
	for _, kind := range cfg.Media {
		s, err := engine.NewSession(kind, engine.Options{
			STUNServers: cfg.STUNServers,
			Controlling: cfg.IsServer(),
		})
		if err != nil {
			rt.close()
			return nil, errors.Wrapf(err, "creating %s session", kind)
		}
		rt.sessions = append(rt.sessions, s)
	}

	rt.controller = session.NewController(session.ControllerConfig{
		Role:        cfg.Role,
		Transmitter: cfg.Transmitter,
		Sessions:    rt.sessions,
		Display:     rt.terminal,
	})
	rt.console = ui.NewConsole(rt.terminal, rt.sessions, rt.controller.Registry())
	return rt, nil
}

// runConsole maps a user quit onto a clean shutdown.
func (rt *runtime) runConsole(ctx context.Context, in io.Reader) error {
	err := rt.console.Run(ctx, in)
	if errors.Is(err, ui.ErrQuit) {
		return errShutdown
	}
	return err
}

// close tears participants down before the sessions that own their streams.
func (rt *runtime) close() {
	if rt.controller != nil {
		rt.controller.Close()
	}
	for _, s := range rt.sessions {
		if err := s.Close(); err != nil {
			util.LogWarning("closing %s session: %v", s.Kind(), err)
		}
	}
}

// errShutdown stops the errgroup on a user quit; it never leaves the package.
var errShutdown = errors.New("shutdown")

func ignoreShutdown(err error) error {
	if errors.Is(err, errShutdown) {
		return nil
	}
	return err
}
