package models

// GameMode identifies who plays each side.
type GameMode string

const (
	HumanVsHuman   GameMode = "human_vs_human"
	HumanVsEngine  GameMode = "human_vs_engine"
	EngineVsEngine GameMode = "engine_vs_engine"
)

// GamePhase is the session lifecycle phase.
type GamePhase string

const (
	PhaseSetup   GamePhase = "setup"
	PhasePlaying GamePhase = "playing"
	PhasePaused  GamePhase = "paused"
	PhaseEnded   GamePhase = "ended"
)

// GameStatus is the chess-level outcome of the current position.
type GameStatus string

const (
	StatusOngoing  GameStatus = "ongoing"
	StatusWhiteWon GameStatus = "white_won"
	StatusBlackWon GameStatus = "black_won"
	StatusDraw     GameStatus = "draw"
)

// Side names one player color.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

// EngineConfig is the engine attachment requested for a session.
type EngineConfig struct {
	Enabled    bool `json:"enabled"`
	SkillLevel int  `json:"skill_level"` // 0-20
	Threads    *int `json:"threads,omitempty"`
	HashMB     *int `json:"hash_mb,omitempty"`
}

// EngineAnalysis is a snapshot of engine search output.
type EngineAnalysis struct {
	Depth    *int     `json:"depth,omitempty"`
	SelDepth *int     `json:"seldepth,omitempty"`
	TimeMs   *int64   `json:"time_ms,omitempty"`
	Nodes    *int64   `json:"nodes,omitempty"`
	NPS      *int64   `json:"nps,omitempty"`
	Score    *Score   `json:"score,omitempty"`
	PV       []string `json:"pv,omitempty"` // UCI move strings
}

// MoveRecord is one history entry. FENBefore holds the full pre-move
// position so undo is a straight restore.
type MoveRecord struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Piece     string `json:"piece"`
	Captured  string `json:"captured,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	FENBefore string `json:"fen_before"`
	FENAfter  string `json:"fen_after"`
	ClockMs   *int64 `json:"clock_ms,omitempty"`
}

// TimerConfig sets per-side starting time.
type TimerConfig struct {
	WhiteMs int64 `json:"white_ms"`
	BlackMs int64 `json:"black_ms"`
}

// TimerSnapshot is the externally visible clock state.
type TimerSnapshot struct {
	WhiteRemainingMs int64 `json:"white_remaining_ms"`
	BlackRemainingMs int64 `json:"black_remaining_ms"`
	ActiveSide       Side  `json:"active_side,omitempty"`
	Running          bool  `json:"running"`
}

// LastMove is the from/to pair of the most recent move.
type LastMove struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LegalMove describes one legal move from the current position.
type LegalMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	Promotion string `json:"promotion,omitempty"`
}

// SessionSnapshot is the immutable view of a session broadcast after
// every mutation. It is the only way the outside observes a session.
type SessionSnapshot struct {
	SessionID      string          `json:"session_id"`
	FEN            string          `json:"fen"`
	SideToMove     Side            `json:"side_to_move"`
	Phase          GamePhase       `json:"phase"`
	Status         GameStatus      `json:"status"`
	StatusReason   string          `json:"status_reason,omitempty"`
	MoveCount      int             `json:"move_count"`
	History        []MoveRecord    `json:"history"`
	LastMove       *LastMove       `json:"last_move,omitempty"`
	LastAnalysis   *EngineAnalysis `json:"last_analysis,omitempty"`
	EngineConfig   *EngineConfig   `json:"engine_config,omitempty"`
	Mode           GameMode        `json:"mode"`
	HumanSide      Side            `json:"human_side,omitempty"`
	EngineThinking bool            `json:"engine_thinking"`
	Timer          *TimerSnapshot  `json:"timer,omitempty"`
}
