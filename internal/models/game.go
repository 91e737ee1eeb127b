package models

// GameResult is the recorded outcome of a finished game.
type GameResult string

const (
	ResultWhiteWins GameResult = "WhiteWins"
	ResultBlackWins GameResult = "BlackWins"
	ResultDraw      GameResult = "Draw"
)

// StoredMove is one persisted half-move of a finished game.
type StoredMove struct {
	Ply      int    `json:"ply"` // 1-indexed
	SAN      string `json:"san"`
	UCI      string `json:"uci"`
	FENAfter string `json:"fen_after"`
	ClockMs  *int64 `json:"clock_ms,omitempty"`
}

// FinishedGame is an archived, immutable game.
type FinishedGame struct {
	ID         string       `json:"id"`
	StartFEN   string       `json:"start_fen"`
	Moves      []StoredMove `json:"moves"`
	Result     GameResult   `json:"result"`
	Reason     string       `json:"reason"`
	Mode       GameMode     `json:"mode"`
	HumanSide  *Side        `json:"human_side,omitempty"`
	SkillLevel int          `json:"skill_level"`
	CreatedAt  int64        `json:"created_at"` // epoch seconds
}

// SuspendedSession is a session parked in storage for later resumption.
// Only the FEN survives; history is not restored on resume.
type SuspendedSession struct {
	ID         string   `json:"id"`
	FEN        string   `json:"fen"`
	SideToMove Side     `json:"side_to_move"`
	MoveCount  int      `json:"move_count"`
	Mode       GameMode `json:"mode"`
	HumanSide  *Side    `json:"human_side,omitempty"`
	SkillLevel int      `json:"skill_level"`
	CreatedAt  int64    `json:"created_at"`
}

// SavedPosition is a named FEN. Default rows are seeded on first run
// and cannot be deleted.
type SavedPosition struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FEN       string `json:"fen"`
	IsDefault bool   `json:"is_default"`
	CreatedAt int64  `json:"created_at"`
}
