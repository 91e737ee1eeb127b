package models

// MoveClassification grades a single move by its centipawn loss.
type MoveClassification string

const (
	ClassBrilliant  MoveClassification = "brilliant"
	ClassBest       MoveClassification = "best"
	ClassExcellent  MoveClassification = "excellent"
	ClassGood       MoveClassification = "good"
	ClassInaccuracy MoveClassification = "inaccuracy"
	ClassMistake    MoveClassification = "mistake"
	ClassBlunder    MoveClassification = "blunder"
	ClassForced     MoveClassification = "forced"
	ClassBook       MoveClassification = "book"
)

// ReviewStatusKind is the lifecycle state of a game review.
type ReviewStatusKind string

const (
	ReviewQueued    ReviewStatusKind = "queued"
	ReviewAnalyzing ReviewStatusKind = "analyzing"
	ReviewComplete  ReviewStatusKind = "complete"
	ReviewFailed    ReviewStatusKind = "failed"
)

// ReviewStatus carries progress for analyzing reviews and the error
// text for failed ones.
type ReviewStatus struct {
	Kind       ReviewStatusKind `json:"kind"`
	CurrentPly int              `json:"current_ply,omitempty"`
	TotalPlies int              `json:"total_plies,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// PositionReview is the per-ply analysis row. Evaluations are stored
// normalized so that positive always favors white.
type PositionReview struct {
	Ply            int                `json:"ply"`
	FEN            string             `json:"fen"` // position after the move
	PlayedSAN      string             `json:"played_san"`
	BestMoveSAN    string             `json:"best_move_san"`
	BestMoveUCI    string             `json:"best_move_uci"`
	EvalBefore     Score              `json:"eval_before"`
	EvalAfter      Score              `json:"eval_after"`
	EvalBest       Score              `json:"eval_best"`
	Classification MoveClassification `json:"classification"`
	CPLoss         int                `json:"cp_loss"`
	PV             []string           `json:"pv"`
	Depth          int                `json:"depth"`
	ClockMs        *int64             `json:"clock_ms,omitempty"`
}

// GameReview is the full review bound to a finished game.
// AnalyzedPlies always equals len(Positions).
type GameReview struct {
	GameID        string           `json:"game_id"`
	Status        ReviewStatus     `json:"status"`
	Positions     []PositionReview `json:"positions"`
	WhiteAccuracy *float64         `json:"white_accuracy,omitempty"`
	BlackAccuracy *float64         `json:"black_accuracy,omitempty"`
	AnalysisDepth int              `json:"analysis_depth"`
	AnalyzedPlies int              `json:"analyzed_plies"`
	TotalPlies    int              `json:"total_plies"`
	CreatedAt     int64            `json:"created_at"`
	StartedAt     *int64           `json:"started_at,omitempty"`
	CompletedAt   *int64           `json:"completed_at,omitempty"`
	Winner        string           `json:"winner,omitempty"`
}
