package ui

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"github.com/1ureka/peercall/internal/media"
	"github.com/1ureka/peercall/internal/util"
)

// ErrQuit is returned by Console.Run when the user asks to leave.
var ErrQuit = errors.New("quit requested")

// Peers lists the registered participants.
type Peers interface {
	IDs() []int
}

// Console executes line commands against the running session.
type Console struct {
	term     *Terminal
	sessions map[media.Kind]media.Session
	peers    Peers
}

func NewConsole(term *Terminal, sessions []media.Session, peers Peers) *Console {
	c := &Console{term: term, sessions: make(map[media.Kind]media.Session), peers: peers}
	for _, s := range sessions {
		c.sessions[s.Kind()] = s
		term.SetLocalCodecs(s.Kind(), s.LocalCodecs())
	}
	return c
}

// Run reads commands from in until ctx is done, the input ends, or the
// user quits (ErrQuit).
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.printHelp()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				<-ctx.Done()
				return nil
			}
			if err := c.Execute(line); err != nil {
				if errors.Is(err, ErrQuit) {
					return err
				}
				util.LogWarning("%v", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Execute runs one command line.
func (c *Console) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "codecs":
		c.render(c.term.localTable())
		c.render(c.term.receivedTable())
	case "peers":
		c.render(c.term.peersTable(c.peers.IDs()))
	case "send":
		return c.setSendCodec(fields[1:])
	case "help":
		c.printHelp()
	case "quit", "exit":
		return ErrQuit
	default:
		return errors.Errorf("unknown command %q (try help)", fields[0])
	}
	return nil
}

func (c *Console) setSendCodec(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: send <audio|video> <codec id>")
	}
	kind, err := media.ParseKind(args[0])
	if err != nil {
		return err
	}
	s, ok := c.sessions[kind]
	if !ok {
		return errors.Errorf("%s is not enabled", kind)
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Errorf("invalid codec id %q", args[1])
	}
	return s.SetSendCodec(id)
}

func (c *Console) render(data pterm.TableData) {
	if len(data) <= 1 {
		return
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		util.LogWarning("rendering table: %v", err)
	}
}

func (c *Console) printHelp() {
	pterm.Info.Println("commands: codecs | peers | send <audio|video> <codec id> | help | quit")
}
