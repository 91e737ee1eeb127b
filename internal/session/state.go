package session

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/benediktms/chesstty/internal/models"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// State is the actor-owned game state. It is not safe for concurrent
// use; only the actor goroutine touches it.
type State struct {
	id        string
	game      *nchess.Game
	startFEN  string
	baseCount int // half-moves already played in the start FEN

	history []models.MoveRecord
	redo    []models.MoveRecord

	mode      models.GameMode
	humanSide models.Side
	engineCfg *models.EngineConfig

	phase        models.GamePhase
	statusReason string
	flaggedLoser models.Side
	timer        *Timer

	lastAnalysis   *models.EngineAnalysis
	engineThinking bool
}

// NewState builds a session state from an optional FEN. Empty FEN means
// the standard start position.
func NewState(id, fen string, mode models.GameMode, humanSide models.Side, engineCfg *models.EngineConfig) (*State, error) {
	game, err := newGame(fen)
	if err != nil {
		return nil, err
	}
	s := &State{
		id:        id,
		game:      game,
		startFEN:  game.FEN(),
		mode:      mode,
		humanSide: humanSide,
		engineCfg: engineCfg,
		phase:     models.PhasePlaying,
	}
	s.baseCount = halfMovesFromFEN(s.startFEN)
	s.refreshOutcome()
	return s, nil
}

func newGame(fen string) (*nchess.Game, error) {
	if fen == "" {
		return nchess.NewGame(), nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return nchess.NewGame(opt), nil
}

// halfMovesFromFEN derives how many half-moves led to a position, from
// the FEN fullmove number and side to move. A session resumed from a
// bare FEN has no history, but its move count must still line up.
func halfMovesFromFEN(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 0
	}
	var fullmove int
	if _, err := fmt.Sscanf(fields[5], "%d", &fullmove); err != nil || fullmove < 1 {
		return 0
	}
	n := (fullmove - 1) * 2
	if fields[1] == "b" {
		n++
	}
	return n
}

func (s *State) ID() string { return s.id }

func (s *State) Phase() models.GamePhase { return s.phase }

func (s *State) Mode() models.GameMode { return s.mode }

func (s *State) HumanSide() models.Side { return s.humanSide }

func (s *State) Engine() *models.EngineConfig { return s.engineCfg }

func (s *State) Timer() *Timer { return s.timer }

func (s *State) FEN() string {
	return s.game.Position().String()
}

func (s *State) SideToMove() models.Side {
	if s.game.Position().Turn() == nchess.White {
		return models.White
	}
	return models.Black
}

// MoveUCI encodes a move in coordinate notation (e2e4, e7e8q).
func moveUCI(mv *nchess.Move) string {
	uci := mv.S1().String() + mv.S2().String()
	if mv.Promo() != nchess.NoPieceType {
		uci += strings.ToLower(pieceLetter(mv.Promo()))
	}
	return uci
}

func pieceLetter(pt nchess.PieceType) string {
	switch pt {
	case nchess.King:
		return "K"
	case nchess.Queen:
		return "Q"
	case nchess.Rook:
		return "R"
	case nchess.Bishop:
		return "B"
	case nchess.Knight:
		return "N"
	case nchess.Pawn:
		return "P"
	default:
		return ""
	}
}

// normalizeCastling rewrites king-takes-own-rook castling coordinates
// into the king-destination form the move decoder expects.
func (s *State) normalizeCastling(uci string) string {
	if len(uci) != 4 {
		return uci
	}
	rewrites := map[string]string{
		"e1h1": "e1g1", "e1a1": "e1c1",
		"e8h8": "e8g8", "e8a8": "e8c8",
	}
	target, ok := rewrites[uci]
	if !ok {
		return uci
	}
	sq, err := parseSquare(uci[:2])
	if err != nil {
		return uci
	}
	piece := s.game.Position().Board().Piece(sq)
	if piece.Type() != nchess.King {
		return uci
	}
	return target
}

func parseSquare(name string) (nchess.Square, error) {
	if len(name) != 2 || name[0] < 'a' || name[0] > 'h' || name[1] < '1' || name[1] > '8' {
		return 0, fmt.Errorf("%w: %q", ErrBadSquare, name)
	}
	file := nchess.File(name[0] - 'a')
	rank := nchess.Rank(name[1] - '1')
	return nchess.NewSquare(file, rank), nil
}

// ApplyMove validates and plays a move given as from/to squares plus an
// optional promotion piece letter. On success the redo stack clears and
// the timer hands over to the opponent.
func (s *State) ApplyMove(from, to, promotion string) (models.MoveRecord, error) {
	if s.phase == models.PhaseEnded {
		return models.MoveRecord{}, ErrGameEnded
	}
	if _, err := parseSquare(from); err != nil {
		return models.MoveRecord{}, err
	}
	if _, err := parseSquare(to); err != nil {
		return models.MoveRecord{}, err
	}
	uci := from + to + strings.ToLower(promotion)
	return s.applyUCI(uci)
}

// ApplyUCIMove plays a move in coordinate notation, used for engine
// best moves. Castling coordinates are normalized first.
func (s *State) ApplyUCIMove(uci string) (models.MoveRecord, error) {
	if s.phase == models.PhaseEnded {
		return models.MoveRecord{}, ErrGameEnded
	}
	return s.applyUCI(s.normalizeCastling(uci))
}

func (s *State) applyUCI(uci string) (models.MoveRecord, error) {
	posBefore := s.game.Position()
	mv, err := nchess.UCINotation{}.Decode(posBefore, uci)
	if err != nil {
		return models.MoveRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}
	san := nchess.AlgebraicNotation{}.Encode(posBefore, mv)
	fenBefore := posBefore.String()

	record := models.MoveRecord{
		From:      mv.S1().String(),
		To:        mv.S2().String(),
		Piece:     pieceLetter(posBefore.Board().Piece(mv.S1()).Type()),
		Promotion: strings.ToLower(pieceLetter(mv.Promo())),
		SAN:       san,
		UCI:       moveUCI(mv),
		FENBefore: fenBefore,
	}
	if captured := posBefore.Board().Piece(mv.S2()); captured != nchess.NoPiece {
		record.Captured = pieceLetter(captured.Type())
	} else if mv.HasTag(nchess.EnPassant) {
		record.Captured = "P"
	}

	if err := s.game.Move(mv, nil); err != nil {
		return models.MoveRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}
	record.FENAfter = s.game.Position().String()
	if s.timer != nil {
		record.ClockMs = s.clockAfterMove()
	}

	s.history = append(s.history, record)
	s.redo = s.redo[:0]
	s.lastAnalysis = nil
	if s.phase == models.PhaseSetup {
		s.phase = models.PhasePlaying
	}
	s.refreshOutcome()
	if s.timer != nil && s.phase == models.PhasePlaying {
		s.timer.SwitchTo(s.SideToMove())
	} else if s.timer != nil && s.phase == models.PhaseEnded {
		s.timer.Stop()
	}
	return record, nil
}

// clockAfterMove records the mover's remaining time once the move is on
// the board. The timer has not yet switched, so the active side is
// still the mover.
func (s *State) clockAfterMove() *int64 {
	snap := s.timer.Snapshot()
	var ms int64
	// Side to move already flipped; the mover is the other side.
	if s.SideToMove() == models.Black {
		ms = snap.WhiteRemainingMs
	} else {
		ms = snap.BlackRemainingMs
	}
	return &ms
}

// LegalMoves lists legal moves from the current position, optionally
// filtered to one origin square.
func (s *State) LegalMoves(from string) ([]models.LegalMove, error) {
	var fromSq nchess.Square
	filtered := from != ""
	if filtered {
		sq, err := parseSquare(from)
		if err != nil {
			return nil, err
		}
		fromSq = sq
	}
	pos := s.game.Position()
	var out []models.LegalMove
	mvs := s.game.ValidMoves()
	for i := range mvs {
		mv := &mvs[i]
		if filtered && mv.S1() != fromSq {
			continue
		}
		out = append(out, models.LegalMove{
			From:      mv.S1().String(),
			To:        mv.S2().String(),
			SAN:       nchess.AlgebraicNotation{}.Encode(pos, mv),
			UCI:       moveUCI(mv),
			Promotion: strings.ToLower(pieceLetter(mv.Promo())),
		})
	}
	return out, nil
}

// Undo pops the last move, restoring its pre-move position and pushing
// the record on the redo stack. A finished game returns to Playing.
func (s *State) Undo() error {
	if len(s.history) == 0 {
		return fmt.Errorf("%w: nothing to undo", ErrIllegalMove)
	}
	last := s.history[len(s.history)-1]
	game, err := newGame(last.FENBefore)
	if err != nil {
		return err
	}
	s.game = game
	s.history = s.history[:len(s.history)-1]
	s.redo = append(s.redo, last)
	s.phase = models.PhasePlaying
	s.statusReason = ""
	s.lastAnalysis = nil
	if s.timer != nil {
		s.timer.SwitchTo(s.SideToMove())
	}
	return nil
}

// Redo replays the most recently undone move.
func (s *State) Redo() error {
	if len(s.redo) == 0 {
		return fmt.Errorf("%w: nothing to redo", ErrIllegalMove)
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	game, err := newGame(next.FENBefore)
	if err != nil {
		return err
	}
	// Replay through the game so outcome detection runs.
	s.game = game
	if _, err := s.applyRedo(next); err != nil {
		s.redo = append(s.redo, next)
		return err
	}
	return nil
}

func (s *State) applyRedo(rec models.MoveRecord) (models.MoveRecord, error) {
	pos := s.game.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, rec.UCI)
	if err != nil {
		return models.MoveRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, rec.UCI)
	}
	if err := s.game.Move(mv, nil); err != nil {
		return models.MoveRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, rec.UCI)
	}
	s.history = append(s.history, rec)
	s.lastAnalysis = nil
	s.refreshOutcome()
	if s.timer != nil && s.phase == models.PhasePlaying {
		s.timer.SwitchTo(s.SideToMove())
	}
	return rec, nil
}

// Reset replaces the position. An empty FEN resets to the standard
// start; a non-standard FEN enters Setup until the first move.
func (s *State) Reset(fen string) error {
	game, err := newGame(fen)
	if err != nil {
		return err
	}
	s.game = game
	s.startFEN = game.FEN()
	s.baseCount = halfMovesFromFEN(s.startFEN)
	s.history = s.history[:0]
	s.redo = s.redo[:0]
	s.lastAnalysis = nil
	s.statusReason = ""
	if s.startFEN == StartFEN {
		s.phase = models.PhasePlaying
	} else {
		s.phase = models.PhaseSetup
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	return nil
}

func (s *State) Pause() error {
	switch s.phase {
	case models.PhasePlaying, models.PhaseSetup:
		s.phase = models.PhasePaused
		if s.timer != nil {
			s.timer.Stop()
		}
		return nil
	case models.PhasePaused:
		return ErrAlreadyPaused
	default:
		return ErrGameEnded
	}
}

func (s *State) Resume() error {
	if s.phase != models.PhasePaused {
		return ErrNotPaused
	}
	s.phase = models.PhasePlaying
	if s.timer != nil {
		s.timer.Start(s.SideToMove())
	}
	return nil
}

// SetTimer installs or replaces the clock. A nil config removes it.
func (s *State) SetTimer(cfg *models.TimerConfig) {
	if cfg == nil {
		s.timer = nil
		return
	}
	s.timer = NewTimer(*cfg)
	if s.phase == models.PhasePlaying {
		s.timer.Start(s.SideToMove())
	}
}

// TickTimer advances the clock. On flag fall the game ends in favor of
// the opponent and the method reports true.
func (s *State) TickTimer() bool {
	if s.timer == nil || s.phase != models.PhasePlaying {
		return false
	}
	if !s.timer.Tick() {
		return false
	}
	loser := s.timer.ActiveSide()
	s.timer.Stop()
	s.phase = models.PhaseEnded
	s.statusReason = "Time expired"
	s.flaggedLoser = loser
	return true
}

// refreshOutcome syncs phase and reason with the chess-level result.
func (s *State) refreshOutcome() {
	outcome := s.game.Outcome()
	if outcome == nchess.NoOutcome {
		return
	}
	s.phase = models.PhaseEnded
	switch s.game.Method() {
	case nchess.Checkmate:
		s.statusReason = "Checkmate"
	case nchess.Stalemate:
		s.statusReason = "Stalemate"
	case nchess.ThreefoldRepetition:
		s.statusReason = "Threefold repetition"
	case nchess.FiftyMoveRule:
		s.statusReason = "Fifty-move rule"
	case nchess.InsufficientMaterial:
		s.statusReason = "Insufficient material"
	case nchess.Resignation:
		s.statusReason = "Resignation"
	default:
		s.statusReason = "Game over"
	}
}

// Status maps the game outcome (or a flag fall) to the session status.
func (s *State) Status() models.GameStatus {
	if s.flaggedLoser != "" {
		if s.flaggedLoser == models.White {
			return models.StatusBlackWon
		}
		return models.StatusWhiteWon
	}
	switch s.game.Outcome() {
	case nchess.WhiteWon:
		return models.StatusWhiteWon
	case nchess.BlackWon:
		return models.StatusBlackWon
	case nchess.Draw:
		return models.StatusDraw
	default:
		return models.StatusOngoing
	}
}

// ShouldAutoTrigger reports whether the attached engine owes a move in
// the current position.
func (s *State) ShouldAutoTrigger() bool {
	if s.engineCfg == nil || !s.engineCfg.Enabled {
		return false
	}
	if s.phase != models.PhasePlaying || s.engineThinking {
		return false
	}
	switch s.mode {
	case models.EngineVsEngine:
		return true
	case models.HumanVsEngine:
		return s.SideToMove() == s.humanSide.Other()
	default:
		return false
	}
}

// SearchParams maps skill level to search limits: weak levels use
// shallow fixed depth, strong levels use movetime.
func SearchParams(skill int) engineSearch {
	switch {
	case skill <= 3:
		return engineSearch{Depth: intPtr(4)}
	case skill <= 7:
		return engineSearch{Depth: intPtr(8)}
	case skill <= 12:
		return engineSearch{MovetimeMs: intPtr(500)}
	case skill <= 17:
		return engineSearch{MovetimeMs: intPtr(1000)}
	default:
		return engineSearch{MovetimeMs: intPtr(2000)}
	}
}

type engineSearch struct {
	Depth      *int
	MovetimeMs *int
}

func intPtr(v int) *int { return &v }

func (s *State) SetEngineConfig(cfg *models.EngineConfig) {
	s.engineCfg = cfg
}

// SetSkill updates the stored engine skill level after validation.
func (s *State) SetSkill(level int) error {
	if level < 0 || level > 20 {
		return ErrSkillOutOfRange
	}
	if s.engineCfg == nil {
		return ErrNoEngine
	}
	s.engineCfg.SkillLevel = level
	return nil
}

func (s *State) SetThinking(v bool) {
	s.engineThinking = v
}

func (s *State) Thinking() bool {
	return s.engineThinking
}

func (s *State) SetAnalysis(a *models.EngineAnalysis) {
	s.lastAnalysis = a
}

// Snapshot builds the broadcastable view of the session.
func (s *State) Snapshot() models.SessionSnapshot {
	snap := models.SessionSnapshot{
		SessionID:      s.id,
		FEN:            s.FEN(),
		SideToMove:     s.SideToMove(),
		Phase:          s.phase,
		Status:         s.Status(),
		StatusReason:   s.statusReason,
		MoveCount:      s.baseCount + len(s.history),
		History:        append([]models.MoveRecord(nil), s.history...),
		LastAnalysis:   s.lastAnalysis,
		EngineConfig:   s.engineCfg,
		Mode:           s.mode,
		HumanSide:      s.humanSide,
		EngineThinking: s.engineThinking,
	}
	if len(s.history) > 0 {
		last := s.history[len(s.history)-1]
		snap.LastMove = &models.LastMove{From: last.From, To: last.To}
	}
	if s.timer != nil {
		ts := s.timer.Snapshot()
		snap.Timer = &ts
	}
	return snap
}

// FinishedGame converts an ended session into its archival record.
func (s *State) FinishedGame(id string, createdAt int64) models.FinishedGame {
	moves := make([]models.StoredMove, len(s.history))
	for i, rec := range s.history {
		moves[i] = models.StoredMove{
			Ply:      i + 1,
			SAN:      rec.SAN,
			UCI:      rec.UCI,
			FENAfter: rec.FENAfter,
			ClockMs:  rec.ClockMs,
		}
	}
	var result models.GameResult
	switch s.Status() {
	case models.StatusWhiteWon:
		result = models.ResultWhiteWins
	case models.StatusBlackWon:
		result = models.ResultBlackWins
	default:
		result = models.ResultDraw
	}
	g := models.FinishedGame{
		ID:        id,
		StartFEN:  s.startFEN,
		Moves:     moves,
		Result:    result,
		Reason:    s.statusReason,
		Mode:      s.mode,
		CreatedAt: createdAt,
	}
	if s.mode == models.HumanVsEngine {
		side := s.humanSide
		g.HumanSide = &side
	}
	if s.engineCfg != nil {
		g.SkillLevel = s.engineCfg.SkillLevel
	}
	return g
}
