package session

import "github.com/benediktms/chesstty/internal/models"

// Command is a request delivered to a session actor's mailbox. Every
// command carries a reply channel; the actor answers exactly once.
type Command interface {
	isCommand()
}

// SnapshotReply answers commands whose result is the updated session
// view.
type SnapshotReply struct {
	Snapshot models.SessionSnapshot
	Err      error
}

// LegalMovesReply answers GetLegalMoves.
type LegalMovesReply struct {
	Moves []models.LegalMove
	Err   error
}

// SubscribeReply pairs the current snapshot with a live event channel,
// so a subscriber never misses the state it joined at.
type SubscribeReply struct {
	Snapshot models.SessionSnapshot
	Events   <-chan Event
	Cancel   func()
	Err      error
}

type MakeMove struct {
	From      string
	To        string
	Promotion string
	Reply     chan SnapshotReply
}

type GetLegalMoves struct {
	From  string // optional origin-square filter
	Reply chan LegalMovesReply
}

type Undo struct {
	Reply chan SnapshotReply
}

type Redo struct {
	Reply chan SnapshotReply
}

type Reset struct {
	FEN   string // empty = standard start
	Reply chan SnapshotReply
}

type SetEngine struct {
	Config models.EngineConfig
	Reply  chan SnapshotReply
}

type StopEngine struct {
	Reply chan SnapshotReply
}

type Pause struct {
	Reply chan SnapshotReply
}

type Resume struct {
	Reply chan SnapshotReply
}

type SetSkill struct {
	Level int
	Reply chan SnapshotReply
}

type SetTimer struct {
	Config *models.TimerConfig // nil removes the clock
	Reply  chan SnapshotReply
}

type Subscribe struct {
	Reply chan SubscribeReply
}

type GetSnapshot struct {
	Reply chan SnapshotReply
}

// Shutdown stops the actor. If the game has ended and was not archived
// yet, it is archived first.
type Shutdown struct {
	Reply chan error
}

func (MakeMove) isCommand() {}

func (GetLegalMoves) isCommand() {}

func (Undo) isCommand() {}

func (Redo) isCommand() {}

func (Reset) isCommand() {}

func (SetEngine) isCommand() {}

func (StopEngine) isCommand() {}

func (Pause) isCommand() {}

func (Resume) isCommand() {}

func (SetSkill) isCommand() {}

func (SetTimer) isCommand() {}

func (Subscribe) isCommand() {}

func (GetSnapshot) isCommand() {}

func (Shutdown) isCommand() {}
