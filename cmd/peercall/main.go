// Command peercall is the CLI entry point.
//
// Peercall negotiates peer-to-peer audio/video streams between a server and
// any number of clients. Candidates and codecs are exchanged over a
// WebSocket signaling link; the server relays each client's negotiated
// codecs to the others.
//
// It can be launched interactively (no --role) or non-interactively via
// flags (--role, --address, --port, --transmitter, --stun, --audio, --video).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/1ureka/peercall/internal/app"
	"github.com/1ureka/peercall/internal/config"
	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/session"
	"github.com/1ureka/peercall/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := parseCmdline()
	if err != nil {
		util.LogError("%v", err)
		os.Exit(2)
	}

	if cfg.Debug {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Peercall v%s", version))
	pterm.Println()

	if cfg.Role == "" {
		askInteractive(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		util.LogError("%v", err)
		os.Exit(2)
	}

	switch cfg.Role {
	case config.RoleServer:
		err = app.RunServer(ctx, cfg, os.Stdin)
	case config.RoleClient:
		err = app.RunClient(ctx, cfg, os.Stdin)
	}

	if err != nil {
		if errors.Is(err, session.ErrFatalDisconnect) {
			pterm.Error.Println("the session cannot continue without the server")
		}
		util.LogError("%v", err)
		os.Exit(1)
	}
	util.LogInfo("session closed")
}

// parseCmdline reads the flags into a Config; Role stays empty when the
// user should be asked interactively.
func parseCmdline() (config.Config, error) {
	cfg := config.Default()

	role := pflag.String("role", "", "Role: server or client (omit for interactive mode)")
	address := pflag.String("address", "", "Server host or ws:// URL (client only)")
	port := pflag.Uint16("port", config.DefaultPort, "Signaling port (server: listen, client: connect)")
	transmitter := pflag.String("transmitter", string(config.TransmitterNice), "Candidate policy: nice (add) or rawudp (force)")
	stun := pflag.StringSlice("stun", cfg.STUNServers, "STUN servers (host:port), comma separated")
	audio := pflag.Bool("audio", true, "Enable the audio session")
	video := pflag.Bool("video", true, "Enable the video session")
	debug := pflag.Bool("debug", false, "Enable debug logging")
	trace := pflag.Bool("trace", false, "Enable trace logging (includes pion internals)")
	pflag.Parse()

	cfg.Role = config.Role(strings.ToLower(*role))
	cfg.RemoteAddress = *address
	cfg.Port = *port
	cfg.Transmitter = config.Transmitter(strings.ToLower(*transmitter))
	cfg.STUNServers = *stun
	cfg.Debug = *debug || *trace

	cfg.Media = nil
	if *audio {
		cfg.Media = append(cfg.Media, media.KindAudio)
	}
	if *video {
		cfg.Media = append(cfg.Media, media.KindVideo)
	}

	if *trace {
		util.EnableTrace()
	}
	if pflag.NArg() > 0 {
		return cfg, errors.Errorf("unexpected arguments: %v", pflag.Args())
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// Interactive prompts
// ---------------------------------------------------------------------------

// askInteractive fills role, address and port when no --role is given.
func askInteractive(cfg *config.Config) {
	role, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Server: accept participants", "Client: join a server"}).
		WithDefaultText("Select your role").
		Show()

	pterm.Println()

	if strings.HasPrefix(role, "Server") {
		cfg.Role = config.RoleServer
		cfg.Port = askPort("Signaling port to listen on", cfg.Port)
		return
	}
	cfg.Role = config.RoleClient
	cfg.RemoteAddress = askAddress()
	cfg.Port = askPort("Server signaling port", cfg.Port)
}

// askPort prompts the user for a port number until a valid one is entered.
func askPort(prompt string, def uint16) uint16 {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText(fmt.Sprintf("%s (1 ~ 65535)", prompt)).
			WithDefaultValue(strconv.Itoa(int(def))).
			Show()

		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && port >= 1 && port <= 65535 {
			pterm.Println()
			return uint16(port)
		}

		util.LogWarning("invalid port number: must be 1 ~ 65535")
		pterm.Println()
	}
}

// askAddress prompts for the server host until a non-empty one is entered.
func askAddress() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Server address (host or ws:// URL)").
			Show()

		if addr := strings.TrimSpace(raw); addr != "" {
			pterm.Println()
			return addr
		}

		pterm.Println()
		util.LogWarning("invalid input: please enter a host or URL")
	}
}
