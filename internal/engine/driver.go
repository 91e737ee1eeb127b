package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
)

const (
	handshakeTimeout = 10 * time.Second
	shutdownGrace    = 1 * time.Second
)

// Paths tried before falling back to PATH lookup.
var wellKnownPaths = []string{
	"/usr/local/bin/stockfish",
	"/usr/bin/stockfish",
	"/opt/homebrew/bin/stockfish",
	"/usr/games/stockfish",
}

var ErrHandshakeTimeout = errors.New("timeout waiting for uciok")

// Config describes how to spawn and configure an engine subprocess.
type Config struct {
	Path       string // empty = well-known paths, then PATH
	SkillLevel int    // clamped 0-20
	Threads    *int   // clamped 1-16
	HashMB     *int   // clamped 1-2048
}

// Driver supervises a UCI engine subprocess. Three goroutines own the
// three I/O endpoints: a stdout line reader emitting typed Events, a
// stdin writer draining a raw command queue, and a translator turning
// typed Commands into UCI strings.
type Driver struct {
	cmd  *exec.Cmd
	log  *logger.Logger
	path string

	commands   chan Command
	events     chan Event
	writeQueue chan string
	lines      chan string

	exited    chan struct{}
	closeOnce sync.Once
}

// FindBinary resolves the engine executable. An explicit override wins;
// otherwise the well-known locations are tried before PATH.
func FindBinary(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("engine binary %s: %w", override, err)
		}
		return override, nil
	}
	for _, p := range wellKnownPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	p, err := exec.LookPath("stockfish")
	if err != nil {
		return "", fmt.Errorf("stockfish not found in well-known paths or PATH: %w", err)
	}
	return p, nil
}

// Spawn starts the subprocess, performs the uci handshake, applies the
// configured options and launches the I/O tasks. A handshake failure
// kills the process and returns an error.
func Spawn(cfg Config) (*Driver, error) {
	log := logger.Default().WithPrefix("engine")

	path, err := FindBinary(cfg.Path)
	if err != nil {
		return nil, err
	}

	log.Info("starting engine: %s", path)
	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}

	d := &Driver{
		cmd:        cmd,
		log:        log,
		path:       path,
		commands:   make(chan Command, 32),
		events:     make(chan Event, 256),
		writeQueue: make(chan string, 32),
		lines:      make(chan string, 64),
		exited:     make(chan struct{}),
	}

	// Single owner of the stdout pipe for the driver's whole lifetime.
	go d.pumpLines(stdout)
	go func() {
		_ = cmd.Wait()
		close(d.exited)
	}()

	if err := d.handshake(stdin, cfg); err != nil {
		_ = cmd.Process.Kill()
		<-d.exited
		return nil, err
	}

	go d.eventLoop()
	go d.writeLoop(stdin)
	go d.translateLoop()

	d.Send(isreadyCommand{})
	log.Info("engine ready")
	return d, nil
}

// isreadyCommand is internal: isready is part of the spawn protocol,
// not the public command set.
type isreadyCommand struct{}

func (isreadyCommand) encode() string { return "isready" }

// pumpLines reads engine stdout line by line. It is the only reader of
// the pipe; the channel closes on EOF or read error.
func (d *Driver) pumpLines(stdout io.Reader) {
	defer close(d.lines)
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			d.lines <- line
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.log.Warn("engine stdout read error: %v", err)
			}
			return
		}
	}
}

func (d *Driver) handshake(stdin io.Writer, cfg Config) error {
	if _, err := fmt.Fprintln(stdin, "uci"); err != nil {
		return fmt.Errorf("write uci: %w", err)
	}
	deadline := time.After(handshakeTimeout)
	for {
		select {
		case line, ok := <-d.lines:
			if !ok {
				return errors.New("engine closed during handshake")
			}
			if parseLine(line).Kind == EventUCIOk {
				goto configured
			}
		case <-deadline:
			d.log.Error("uci handshake timed out after %v", handshakeTimeout)
			return ErrHandshakeTimeout
		}
	}

configured:
	skill := clamp(cfg.SkillLevel, 0, 20)
	if _, err := fmt.Fprintf(stdin, "setoption name Skill Level value %d\n", skill); err != nil {
		return fmt.Errorf("write setoption: %w", err)
	}
	if cfg.Threads != nil {
		if _, err := fmt.Fprintf(stdin, "setoption name Threads value %d\n", clamp(*cfg.Threads, 1, 16)); err != nil {
			return fmt.Errorf("write setoption: %w", err)
		}
	}
	if cfg.HashMB != nil {
		if _, err := fmt.Fprintf(stdin, "setoption name Hash value %d\n", clamp(*cfg.HashMB, 1, 2048)); err != nil {
			return fmt.Errorf("write setoption: %w", err)
		}
	}
	return nil
}

// Events returns the event stream. The channel is closed after the
// reader task exits (engine EOF or shutdown).
func (d *Driver) Events() <-chan Event {
	return d.events
}

// Send enqueues a typed command. It never blocks indefinitely; a wedged
// translator drops the command and reports an error event instead.
func (d *Driver) Send(cmd Command) {
	select {
	case d.commands <- cmd:
	case <-time.After(5 * time.Second):
		d.log.Error("command queue wedged, dropping %q", cmd.encode())
		d.emit(Event{Kind: EventError, Err: "engine command queue full"})
	}
}

func (d *Driver) emit(ev Event) {
	switch ev.Kind {
	case EventInfo, EventDebug:
		// Best effort: analysis chatter may be dropped under pressure.
		select {
		case d.events <- ev:
		default:
		}
	default:
		select {
		case d.events <- ev:
		case <-time.After(5 * time.Second):
			d.log.Warn("event consumer stalled, dropping %s event", ev.Kind)
		}
	}
}

func (d *Driver) eventLoop() {
	defer close(d.events)
	for line := range d.lines {
		d.emit(parseLine(line))
	}
	d.emit(Event{Kind: EventError, Err: "engine closed"})
}

func (d *Driver) writeLoop(stdin io.WriteCloser) {
	defer stdin.Close()
	for line := range d.writeQueue {
		if _, err := fmt.Fprintln(stdin, line); err != nil {
			d.log.Warn("engine stdin write error: %v", err)
			d.emit(Event{Kind: EventError, Err: fmt.Sprintf("write to engine: %v", err)})
			return
		}
		d.emit(Event{Kind: EventDebug, Direction: DirToEngine, Line: line})
	}
}

func (d *Driver) translateLoop() {
	defer close(d.writeQueue)
	for cmd := range d.commands {
		d.writeQueue <- cmd.encode()
		if _, isQuit := cmd.(Quit); isQuit {
			return
		}
	}
}

// Close enqueues quit, waits up to the grace period for the process to
// exit, then force-kills it. Safe to call more than once.
func (d *Driver) Close() {
	d.closeOnce.Do(func() {
		d.log.Debug("shutting down engine")
		d.Send(Quit{})
		select {
		case <-d.exited:
			d.log.Debug("engine exited cleanly")
		case <-time.After(shutdownGrace):
			d.log.Warn("engine did not exit within %v, killing", shutdownGrace)
			_ = d.cmd.Process.Kill()
			<-d.exited
		}
	})
}

// Evaluation is the result of one synchronous position search. The
// score is from the side-to-move's perspective.
type Evaluation struct {
	Score       models.Score
	BestMoveUCI string
	PV          []string
	Depth       int
}

// Evaluate runs a blocking fixed-depth search for callers that own the
// driver exclusively, such as a review worker. It sends the position
// and go commands, then drains events until the bestmove arrives,
// keeping the last info line's score and PV.
func (d *Driver) Evaluate(ctx context.Context, fen string, depth int) (Evaluation, error) {
	d.Send(SetPosition{FEN: fen})
	dep := depth
	d.Send(Go{Depth: &dep})

	var eval Evaluation
	eval.Depth = depth
	for {
		select {
		case <-ctx.Done():
			d.Send(Stop{})
			return Evaluation{}, ctx.Err()
		case ev, ok := <-d.events:
			if !ok {
				return Evaluation{}, errors.New("engine closed during evaluation")
			}
			switch ev.Kind {
			case EventInfo:
				if ev.Info.Score != nil {
					eval.Score = *ev.Info.Score
				}
				if len(ev.Info.PV) > 0 {
					eval.PV = ev.Info.PV
				}
			case EventBestMove:
				eval.BestMoveUCI = ev.BestMove
				return eval, nil
			case EventError:
				return Evaluation{}, errors.New(ev.Err)
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// String identifies the driver for logs.
func (d *Driver) String() string {
	return "uci(" + d.path + " pid " + strconv.Itoa(d.cmd.Process.Pid) + ")"
}
