package models

// TacticalTagKind names a detected tactical motif.
type TacticalTagKind string

const (
	TagFork             TacticalTagKind = "fork"
	TagPin              TacticalTagKind = "pin"
	TagSkewer           TacticalTagKind = "skewer"
	TagDiscoveredAttack TacticalTagKind = "discovered_attack"
	TagDoubleAttack     TacticalTagKind = "double_attack"
	TagHangingPiece     TacticalTagKind = "hanging_piece"
	TagSacrifice        TacticalTagKind = "sacrifice"
	TagZwischenzug      TacticalTagKind = "zwischenzug"
	TagBackRankWeakness TacticalTagKind = "back_rank_weakness"
	TagMateThreat       TacticalTagKind = "mate_threat"
)

// TacticalLine is a ray supporting a tag (pin/skewer evidence).
type TacticalLine struct {
	From    string   `json:"from"`
	Through []string `json:"through,omitempty"`
	To      string   `json:"to"`
}

// TacticalEvidence backs a tag with concrete squares.
type TacticalEvidence struct {
	Lines            []TacticalLine `json:"lines,omitempty"`
	ThreatenedPieces []string       `json:"threatened_pieces,omitempty"`
	DefendedBy       []string       `json:"defended_by,omitempty"`
}

// TacticalTag is one detected motif.
type TacticalTag struct {
	Kind         TacticalTagKind  `json:"kind"`
	Attacker     string           `json:"attacker,omitempty"` // square of the attacking piece
	Victims      []string         `json:"victims,omitempty"`
	TargetSquare string           `json:"target_square,omitempty"`
	Confidence   float64          `json:"confidence"`
	Note         string           `json:"note,omitempty"`
	Evidence     TacticalEvidence `json:"evidence"`
}

// TacticalSummary aggregates the tags found in one position.
type TacticalSummary struct {
	Tags                []TacticalTag `json:"tags"`
	ForkCount           int           `json:"fork_count"`
	PinCount            int           `json:"pin_count"`
	SkewerCount         int           `json:"skewer_count"`
	DiscoveredCount     int           `json:"discovered_attack_count"`
	HangingPieceCount   int           `json:"hanging_piece_count"`
	HasBackRankWeakness bool          `json:"has_back_rank_weakness"`
}

// KingSafetyMetrics measures one side's king exposure.
type KingSafetyMetrics struct {
	Color                   Side    `json:"color"`
	PawnShieldCount         int     `json:"pawn_shield_count"` // 0-3
	PawnShieldMax           int     `json:"pawn_shield_max"`   // always 3
	OpenFilesNearKing       int     `json:"open_files_near_king"`
	AttackerCount           int     `json:"attacker_count"`
	AttackWeight            int     `json:"attack_weight"` // Q=4 R=3 B/N=2 P=1
	AttackedKingZoneSquares int     `json:"attacked_king_zone_squares"`
	KingZoneSize            int     `json:"king_zone_size"`
	ExposureScore           float64 `json:"exposure_score"` // 0.0 safe .. 1.0 exposed
}

// PositionKingSafety holds both sides' metrics.
type PositionKingSafety struct {
	White KingSafetyMetrics `json:"white"`
	Black KingSafetyMetrics `json:"black"`
}

// TensionMetrics measures how volatile a position is.
type TensionMetrics struct {
	MutuallyAttackedPairs int     `json:"mutually_attacked_pairs"`
	ContestedSquares      int     `json:"contested_squares"`
	AttackedButDefended   int     `json:"attacked_but_defended"`
	ForcingMoves          int     `json:"forcing_moves"`
	ChecksAvailable       int     `json:"checks_available"`
	CapturesAvailable     int     `json:"captures_available"`
	VolatilityScore       float64 `json:"volatility_score"` // 0.0 quiet .. 1.0 volatile
}

// AdvancedPositionAnalysis is per-ply board analysis.
type AdvancedPositionAnalysis struct {
	Ply           int                `json:"ply"`
	TacticsBefore TacticalSummary    `json:"tactics_before"`
	TacticsAfter  TacticalSummary    `json:"tactics_after"`
	KingSafety    PositionKingSafety `json:"king_safety"`
	Tension       TensionMetrics     `json:"tension"`
	IsCritical    bool               `json:"is_critical"`
	DeepDepth     *int               `json:"deep_depth,omitempty"`
}

// PlyRange is an inclusive ply interval.
type PlyRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PsychologicalProfile aggregates one player's tendencies over a game.
type PsychologicalProfile struct {
	Color                  Side      `json:"color"`
	MaxConsecutiveErrors   int       `json:"max_consecutive_errors"`
	ErrorStreakStartPly    *int      `json:"error_streak_start_ply,omitempty"`
	FavorableSwings        int       `json:"favorable_swings"`
	UnfavorableSwings      int       `json:"unfavorable_swings"`
	MaxMomentumStreak      int       `json:"max_momentum_streak"`
	BlunderClusterDensity  int       `json:"blunder_cluster_density"`
	BlunderClusterRange    *PlyRange `json:"blunder_cluster_range,omitempty"`
	TimeQualityCorrelation *float64  `json:"time_quality_correlation,omitempty"`
	AvgBlunderTimeMs       *int64    `json:"avg_blunder_time_ms,omitempty"`
	AvgGoodMoveTimeMs      *int64    `json:"avg_good_move_time_ms,omitempty"`
	OpeningAvgCPLoss       float64   `json:"opening_avg_cp_loss"`    // plies 1-30
	MiddlegameAvgCPLoss    float64   `json:"middlegame_avg_cp_loss"` // plies 31-70
	EndgameAvgCPLoss       float64   `json:"endgame_avg_cp_loss"`    // plies 71+
}

// AdvancedGameAnalysis is the complete advanced analysis for a game.
type AdvancedGameAnalysis struct {
	GameID                 string                     `json:"game_id"`
	Positions              []AdvancedPositionAnalysis `json:"positions"`
	WhitePsychology        PsychologicalProfile       `json:"white_psychology"`
	BlackPsychology        PsychologicalProfile       `json:"black_psychology"`
	PipelineVersion        int                        `json:"pipeline_version"`
	ShallowDepth           int                        `json:"shallow_depth"`
	DeepDepth              int                        `json:"deep_depth"`
	CriticalPositionsCount int                        `json:"critical_positions_count"`
	ComputedAt             int64                      `json:"computed_at"`
}
