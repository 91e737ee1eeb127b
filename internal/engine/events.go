package engine

import "github.com/benediktms/chesstty/internal/models"

// EventKind classifies a line received from (or written to) the engine.
type EventKind int

const (
	EventID EventKind = iota
	EventUCIOk
	EventReadyOk
	EventBestMove
	EventInfo
	EventDebug
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventID:
		return "id"
	case EventUCIOk:
		return "uciok"
	case EventReadyOk:
		return "readyok"
	case EventBestMove:
		return "bestmove"
	case EventInfo:
		return "info"
	case EventDebug:
		return "debug"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Debug event directions.
const (
	DirToEngine   = "to-engine"
	DirFromEngine = "from-engine"
)

// Event is a typed engine output. Only the fields for its Kind are set.
type Event struct {
	Kind EventKind

	// EventID
	Name  string
	Value string

	// EventBestMove
	BestMove string
	Ponder   string

	// EventInfo
	Info *models.EngineAnalysis

	// EventDebug
	Direction string
	Line      string

	// EventError
	Err string
}
