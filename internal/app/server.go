package app

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"

	"github.com/1ureka/peercall/internal/config"
	"github.com/1ureka/peercall/internal/signaling"
	"github.com/1ureka/peercall/internal/util"
)

// RunServer orchestrates the server lifecycle:
//  1. Create one media session per enabled kind
//  2. Start the signaling server
//  3. Register every client that connects, under ids 2, 3, ...
//  4. Serve console commands until Ctrl+C or quit
func RunServer(ctx context.Context, cfg config.Config, in io.Reader) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	srv := signaling.NewServer()
	port, err := srv.Start(cfg.Port)
	if err != nil {
		return err
	}
	defer srv.Close()

	pterm.DefaultBox.WithTitle("Signaling Server").Println(fmt.Sprintf(
		"Port       : %d\nInstance   : %s\nMedia      : %v\nCandidates : %s",
		port, rt.controller.Instance(), cfg.Media, cfg.Transmitter))
	util.LogInfo("waiting for clients on ws://<this host>:%d%s", port, signaling.Path)

	util.StartStatsReporter(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			ch, err := srv.Accept(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return errors.Wrap(err, "accepting client")
			}
			id, err := rt.controller.Accept(ch)
			if err != nil {
				util.LogWarning("[%s] rejecting client: %v", ch.Tag(), err)
				continue
			}
			util.LogSuccess("client [%s] registered as participant %d", ch.Tag(), id)
		}
	})
	g.Go(func() error {
		return rt.runConsole(gctx, in)
	})

	return ignoreShutdown(g.Wait())
}
