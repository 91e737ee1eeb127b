package session

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/benediktms/chesstty/internal/engine"
	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
)

// EnginePort is the slice of the engine driver the actor needs. Tests
// substitute a fake; production wires *engine.Driver.
type EnginePort interface {
	Events() <-chan engine.Event
	Send(cmd engine.Command)
	Close()
}

// SpawnEngineFunc creates an engine for a session.
type SpawnEngineFunc func(cfg engine.Config) (EnginePort, error)

const mailboxCapacity = 32

// Actor owns one session's state. All mutations flow through its
// mailbox; the goroutine gives commands priority over engine events,
// and engine events priority over timer ticks.
type Actor struct {
	state *State
	log   *logger.Logger

	mailbox chan Command
	done    chan struct{}
	hub     *hub

	spawnEngine  SpawnEngineFunc
	engine       EnginePort
	engineEvents <-chan engine.Event

	// Search bookkeeping. discardBestMove is set when state mutates
	// under an in-flight search; the stale bestmove is then dropped.
	awaitingBestMove bool
	discardBestMove  bool
	pendingAnalysis  *models.EngineAnalysis

	archive  func(models.FinishedGame)
	archived bool
}

// startActor wires the actor, attaches the configured engine, performs
// the initial auto-trigger and launches the run loop.
func startActor(state *State, spawn SpawnEngineFunc, archive func(models.FinishedGame), broadcastCap int) (*Actor, error) {
	a := &Actor{
		state:       state,
		log:         logger.Default().WithPrefix("session").WithField("id", state.ID()),
		mailbox:     make(chan Command, mailboxCapacity),
		done:        make(chan struct{}),
		hub:         newHub(broadcastCap),
		spawnEngine: spawn,
		archive:     archive,
	}
	if cfg := state.Engine(); cfg != nil && cfg.Enabled {
		if err := a.attachEngine(*cfg); err != nil {
			return nil, err
		}
	}
	if t := state.Timer(); t != nil && state.Phase() == models.PhasePlaying {
		t.Start(state.SideToMove())
	}
	a.maybeTriggerEngine()
	go a.run()
	return a, nil
}

// Done closes when the actor goroutine exits.
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

func (a *Actor) run() {
	defer close(a.done)
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		// Commands first.
		select {
		case cmd := <-a.mailbox:
			if a.handle(cmd) {
				return
			}
			continue
		default:
		}
		// Then engine events.
		select {
		case cmd := <-a.mailbox:
			if a.handle(cmd) {
				return
			}
			continue
		case ev, ok := <-a.engineEvents:
			a.handleEngineEvent(ev, ok)
			continue
		default:
		}
		// Ticks only when nothing else is pending.
		select {
		case cmd := <-a.mailbox:
			if a.handle(cmd) {
				return
			}
		case ev, ok := <-a.engineEvents:
			a.handleEngineEvent(ev, ok)
		case <-ticker.C:
			a.tick()
		}
	}
}

// handle processes one command; true means shut down.
func (a *Actor) handle(cmd Command) bool {
	switch c := cmd.(type) {
	case MakeMove:
		a.interruptSearch()
		_, err := a.state.ApplyMove(c.From, c.To, c.Promotion)
		a.replyMutation(c.Reply, err)

	case GetLegalMoves:
		moves, err := a.state.LegalMoves(c.From)
		sendReply(c.Reply, LegalMovesReply{Moves: moves, Err: err})

	case Undo:
		a.interruptSearch()
		a.replyMutation(c.Reply, a.state.Undo())

	case Redo:
		a.interruptSearch()
		a.replyMutation(c.Reply, a.state.Redo())

	case Reset:
		a.interruptSearch()
		err := a.state.Reset(c.FEN)
		if err == nil {
			a.archived = false
		}
		a.replyMutation(c.Reply, err)

	case SetEngine:
		a.handleSetEngine(c)

	case StopEngine:
		a.interruptSearch()
		a.broadcastThinking(false)
		sendReply(c.Reply, SnapshotReply{Snapshot: a.state.Snapshot()})

	case Pause:
		a.interruptSearch()
		a.replyMutation(c.Reply, a.state.Pause())

	case Resume:
		a.replyMutation(c.Reply, a.state.Resume())

	case SetSkill:
		err := a.state.SetSkill(c.Level)
		if err == nil && a.engine != nil {
			a.engine.Send(engine.SetOption{Name: "Skill Level", Value: strconv.Itoa(c.Level)})
		}
		a.replyMutation(c.Reply, err)

	case SetTimer:
		a.state.SetTimer(c.Config)
		a.replyMutation(c.Reply, nil)

	case Subscribe:
		ch, cancel := a.hub.subscribe()
		sendReply(c.Reply, SubscribeReply{
			Snapshot: a.state.Snapshot(),
			Events:   ch,
			Cancel:   cancel,
		})

	case GetSnapshot:
		sendReply(c.Reply, SnapshotReply{Snapshot: a.state.Snapshot()})

	case Shutdown:
		a.shutdown()
		sendReply(c.Reply, error(nil))
		return true
	}
	return false
}

// replyMutation answers a mutating command. Success broadcasts the new
// state and may hand the move to the engine; failure leaves state and
// subscribers untouched.
func (a *Actor) replyMutation(reply chan SnapshotReply, err error) {
	if err != nil {
		sendReply(reply, SnapshotReply{Err: err})
		return
	}
	snap := a.state.Snapshot()
	sendReply(reply, SnapshotReply{Snapshot: snap})
	a.hub.publish(Event{Kind: EventStateChanged, Snapshot: &snap})
	a.finalizeIfEnded()
	a.maybeTriggerEngine()
}

func (a *Actor) handleSetEngine(c SetEngine) {
	if a.engine != nil {
		a.engine.Close()
		a.engine = nil
		a.engineEvents = nil
		a.awaitingBestMove = false
		a.discardBestMove = false
	}
	cfg := c.Config
	if cfg.Enabled {
		if err := a.attachEngine(cfg); err != nil {
			a.log.Error("engine attach failed: %v", err)
			sendReply(c.Reply, SnapshotReply{Err: err})
			return
		}
	}
	a.state.SetEngineConfig(&cfg)
	a.replyMutation(c.Reply, nil)
}

func (a *Actor) attachEngine(cfg models.EngineConfig) error {
	port, err := a.spawnEngine(engine.Config{
		SkillLevel: cfg.SkillLevel,
		Threads:    cfg.Threads,
		HashMB:     cfg.HashMB,
	})
	if err != nil {
		return err
	}
	a.engine = port
	a.engineEvents = port.Events()
	return nil
}

func (a *Actor) handleEngineEvent(ev engine.Event, ok bool) {
	if !ok {
		a.engineEvents = nil
		if a.engine != nil {
			a.log.Warn("engine event stream closed")
			a.abortSearch()
			a.hub.publish(Event{Kind: EventError, Message: "engine stopped unexpectedly"})
			a.engine = nil
		}
		return
	}
	switch ev.Kind {
	case engine.EventDebug:
		a.hub.publish(Event{Kind: EventUciMessage, Direction: ev.Direction, Line: ev.Line})
	case engine.EventInfo:
		if a.awaitingBestMove && ev.Info != nil {
			a.pendingAnalysis = ev.Info
			a.hub.publish(Event{Kind: EventEngineThinking, Thinking: true, Analysis: ev.Info})
		}
	case engine.EventBestMove:
		a.handleBestMove(ev.BestMove)
	case engine.EventError:
		a.log.Warn("engine error: %s", ev.Err)
		a.abortSearch()
		a.hub.publish(Event{Kind: EventError, Message: ev.Err})
	}
}

// abortSearch drops an in-flight search after an engine failure. The
// thinking flag must clear or auto-trigger would stay blocked forever.
func (a *Actor) abortSearch() {
	a.discardBestMove = false
	a.pendingAnalysis = nil
	if !a.awaitingBestMove {
		return
	}
	a.awaitingBestMove = false
	a.broadcastThinking(false)
}

func (a *Actor) handleBestMove(uci string) {
	if !a.awaitingBestMove {
		return
	}
	a.awaitingBestMove = false
	a.broadcastThinking(false)
	if a.discardBestMove {
		a.discardBestMove = false
		return
	}
	if a.state.Phase() != models.PhasePlaying {
		return
	}
	if _, err := a.state.ApplyUCIMove(uci); err != nil {
		a.log.Error("engine move %s rejected: %v", uci, err)
		a.hub.publish(Event{Kind: EventError, Message: "engine produced an illegal move: " + uci})
		return
	}
	// Applying a move clears the last analysis; the engine's own move
	// carries its search output.
	a.state.SetAnalysis(a.pendingAnalysis)
	a.pendingAnalysis = nil
	snap := a.state.Snapshot()
	a.hub.publish(Event{Kind: EventStateChanged, Snapshot: &snap})
	a.finalizeIfEnded()
	a.maybeTriggerEngine()
}

// maybeTriggerEngine starts a search when the engine owes a move.
func (a *Actor) maybeTriggerEngine() {
	if a.engine == nil || a.awaitingBestMove || !a.state.ShouldAutoTrigger() {
		return
	}
	cfg := a.state.Engine()
	params := SearchParams(cfg.SkillLevel)
	a.engine.Send(engine.SetPosition{FEN: a.state.FEN()})
	a.engine.Send(engine.Go{Depth: params.Depth, MovetimeMs: params.MovetimeMs})
	a.awaitingBestMove = true
	a.discardBestMove = false
	a.pendingAnalysis = nil
	a.broadcastThinking(true)
}

// interruptSearch stops an in-flight search and marks its eventual
// bestmove as stale.
func (a *Actor) interruptSearch() {
	if !a.awaitingBestMove {
		return
	}
	if a.engine != nil {
		a.engine.Send(engine.Stop{})
	}
	a.discardBestMove = true
}

func (a *Actor) broadcastThinking(thinking bool) {
	a.state.SetThinking(thinking)
	a.hub.publish(Event{Kind: EventEngineThinking, Thinking: thinking})
}

func (a *Actor) tick() {
	if !a.state.TickTimer() {
		return
	}
	a.log.Info("flag fell, game over: %s", a.state.Status())
	a.interruptSearch()
	snap := a.state.Snapshot()
	a.hub.publish(Event{Kind: EventStateChanged, Snapshot: &snap})
	a.finalizeIfEnded()
}

// finalizeIfEnded archives a freshly concluded game exactly once. The
// actor stays alive afterwards so the session can still be inspected
// or reset.
func (a *Actor) finalizeIfEnded() {
	if a.state.Phase() != models.PhaseEnded || a.archived {
		return
	}
	a.archived = true
	if a.archive == nil {
		return
	}
	game := a.state.FinishedGame(uuid.NewString(), time.Now().Unix())
	a.log.Info("archiving finished game %s (%s, %s)", game.ID, game.Result, game.Reason)
	a.archive(game)
}

func (a *Actor) shutdown() {
	if t := a.state.Timer(); t != nil {
		t.Stop()
	}
	if a.engine != nil {
		a.engine.Close()
		a.engine = nil
	}
	a.finalizeIfEnded()
	a.hub.close()
}

// sendReply answers without blocking; reply channels are buffered by
// the sender.
func sendReply[T any](ch chan T, v T) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}
