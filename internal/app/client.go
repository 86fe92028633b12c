package app

import (
	"context"
	"io"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"

	"github.com/1ureka/peercall/internal/config"
	"github.com/1ureka/peercall/internal/signaling"
	"github.com/1ureka/peercall/internal/util"
)

// RunClient orchestrates the client lifecycle:
//  1. Create one media session per enabled kind
//  2. Connect to the server and register it as participant 1
//  3. Serve console commands until Ctrl+C, quit, or loss of the server
//
// Losing the server returns an error wrapping session.ErrFatalDisconnect.
func RunClient(ctx context.Context, cfg config.Config, in io.Reader) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	url := signaling.URL(cfg.RemoteAddress, cfg.Port)
	spinner, _ := pterm.DefaultSpinner.Start("connecting to " + url)
	ch, err := signaling.Dial(ctx, url)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success("connected to " + url)

	if err := rt.controller.Connect(ch); err != nil {
		ch.Close()
		return err
	}

	util.StartStatsReporter(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-rt.controller.Fatal():
			return err
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		return rt.runConsole(gctx, in)
	})

	return ignoreShutdown(g.Wait())
}
