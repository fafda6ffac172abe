package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	tea "github.com/charmbracelet/bubbletea"

	"textworld/cmd/textworldd/tui"
	"textworld/internal/control"
	"textworld/internal/logging"
	"textworld/internal/session"
)

var runTUI bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the engine's tick loop and accept player connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&runTUI, "tui", false, "show the local operator status console instead of plain logs")
}

// wireRegistry maps each live session to the channel its writer goroutine
// drains, so control.Loop's single deliver callback can route drained
// outbound lines to the right connection without the simulation task ever
// touching a net.Conn itself.
type wireRegistry struct {
	mu    sync.Mutex
	chans map[*session.Session]chan []session.OutboundLine
}

func newWireRegistry() *wireRegistry {
	return &wireRegistry{chans: map[*session.Session]chan []session.OutboundLine{}}
}

func (r *wireRegistry) add(s *session.Session) chan []session.OutboundLine {
	ch := make(chan []session.OutboundLine, 16)
	r.mu.Lock()
	r.chans[s] = ch
	r.mu.Unlock()
	return ch
}

func (r *wireRegistry) remove(s *session.Session) {
	r.mu.Lock()
	delete(r.chans, s)
	r.mu.Unlock()
}

// deliver is installed as control.Loop's SetDeliver callback. A full
// channel drops the batch rather than blocking the simulation task —
// the same overflow policy Session.Send already applies per line.
func (r *wireRegistry) deliver(s *session.Session, lines []session.OutboundLine) {
	r.mu.Lock()
	ch, ok := r.chans[s]
	r.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- lines:
	default:
	}
}

// wireLine is the newline-delimited JSON encoding of one OutboundLine.
// Telnet/websocket negotiation is explicitly out of scope; JSON lines are
// the simplest framing that carries the segment structure spec.md §6
// requires without inventing a binary protocol.
type wireLine struct {
	Segments  []session.Segment `json:"segments"`
	IsPrompt  bool              `json:"is_prompt"`
	Sensitive bool              `json:"sensitive"`
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Close()

	st, w, host, err := openWorld(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	audit, err := logging.NewAuditLog(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer audit.Close()

	gateway := session.NewGateway()
	loop, err := control.New(cfg, w, host, st, gateway, audit)
	if err != nil {
		return fmt.Errorf("build control loop: %w", err)
	}

	registry := newWireRegistry()
	loop.SetDeliver(registry.deliver)

	addr := cfg.Session.ListenAddr
	if addr == "" {
		addr = ":4000"
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	log := logging.Get(logging.CategoryBoot)
	log.Info("listening on %s", addr)

	return control.RunIO(ctx,
		func(ctx context.Context) error { return acceptLoop(ctx, listener, gateway, registry) },
		func(ctx context.Context) error { return loop.Run(ctx) },
		func(ctx context.Context) error {
			if !runTUI {
				<-ctx.Done()
				return nil
			}
			return runOperatorTUI(ctx, loop)
		},
	)
}

func runOperatorTUI(ctx context.Context, loop *control.Loop) error {
	p := tea.NewProgram(tui.New(loopStatusAdapter{loop}, 500*time.Millisecond))
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// loopStatusAdapter converts control.Snapshot to tui.Snapshot so the tui
// package never has to import internal/control.
type loopStatusAdapter struct{ loop *control.Loop }

func (a loopStatusAdapter) Status() tui.Snapshot {
	s := a.loop.Status()
	return tui.Snapshot{Tick: s.Tick, At: s.At, Sessions: s.Sessions, Violations: s.Violations}
}

func acceptLoop(ctx context.Context, listener net.Listener, gateway *session.Gateway, registry *wireRegistry) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go handleConn(ctx, conn, gateway, registry)
	}
}

func handleConn(ctx context.Context, conn net.Conn, gateway *session.Gateway, registry *wireRegistry) {
	defer conn.Close()

	s := gateway.Register(32, 256)
	ch := registry.add(s)
	defer registry.remove(s)

	done := make(chan struct{})
	go writeLoop(conn, ch, done)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if !s.Enqueue(scanner.Text()) {
			logging.Get(logging.CategorySession).Warn("session %s: inbound queue full, line dropped", s.ID)
		}
	}
	gateway.MarkDisconnected(s)
	close(done)
}

func writeLoop(conn net.Conn, ch chan []session.OutboundLine, done chan struct{}) {
	enc := json.NewEncoder(conn)
	for {
		select {
		case <-done:
			return
		case lines, ok := <-ch:
			if !ok {
				return
			}
			for _, l := range lines {
				wl := wireLine{Segments: l.Segments, IsPrompt: l.IsPrompt, Sensitive: l.Sensitive}
				if err := enc.Encode(wl); err != nil {
					return
				}
			}
		}
	}
}
