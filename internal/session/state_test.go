package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/session"
)

func newPlayingState(t *testing.T) *session.State {
	t.Helper()
	s, err := session.NewState("s1", "", models.HumanVsHuman, models.White, nil)
	require.NoError(t, err)
	return s
}

func TestNewState_StartPosition(t *testing.T) {
	s := newPlayingState(t)

	assert.Equal(t, "s1", s.ID())
	assert.Equal(t, models.PhasePlaying, s.Phase())
	assert.Equal(t, session.StartFEN, s.FEN())
	assert.Equal(t, models.White, s.SideToMove())
	assert.Equal(t, models.StatusOngoing, s.Status())
	assert.Equal(t, 0, s.Snapshot().MoveCount)
}

func TestNewState_InvalidFEN(t *testing.T) {
	_, err := session.NewState("s1", "not a fen", models.HumanVsHuman, models.White, nil)
	assert.ErrorIs(t, err, session.ErrInvalidFEN)
}

func TestNewState_MidgameFENMoveCount(t *testing.T) {
	// After 1.e4 e5 2.Nf3 it is black to move on fullmove 2: 3 half-moves.
	fen := "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"
	s, err := session.NewState("s1", fen, models.HumanVsHuman, models.White, nil)
	require.NoError(t, err)

	assert.Equal(t, models.Black, s.SideToMove())
	assert.Equal(t, 3, s.Snapshot().MoveCount)
}

func TestApplyMove_RecordsDetails(t *testing.T) {
	s := newPlayingState(t)

	rec, err := s.ApplyMove("e2", "e4", "")
	require.NoError(t, err)

	assert.Equal(t, "e2", rec.From)
	assert.Equal(t, "e4", rec.To)
	assert.Equal(t, "P", rec.Piece)
	assert.Equal(t, "e4", rec.SAN)
	assert.Equal(t, "e2e4", rec.UCI)
	assert.Equal(t, session.StartFEN, rec.FENBefore)
	assert.NotEqual(t, rec.FENBefore, rec.FENAfter)
	assert.Empty(t, rec.Captured)

	snap := s.Snapshot()
	assert.Equal(t, models.Black, snap.SideToMove)
	assert.Equal(t, 1, snap.MoveCount)
	require.NotNil(t, snap.LastMove)
	assert.Equal(t, "e2", snap.LastMove.From)
	assert.Equal(t, "e4", snap.LastMove.To)
}

func TestApplyMove_Capture(t *testing.T) {
	s := newPlayingState(t)

	mustMove(t, s, "e2", "e4")
	mustMove(t, s, "d7", "d5")
	rec, err := s.ApplyMove("e4", "d5", "")
	require.NoError(t, err)

	assert.Equal(t, "P", rec.Captured)
	assert.Equal(t, "exd5", rec.SAN)
}

func TestApplyMove_Illegal(t *testing.T) {
	s := newPlayingState(t)

	_, err := s.ApplyMove("e2", "e5", "")
	assert.ErrorIs(t, err, session.ErrIllegalMove)

	_, err = s.ApplyMove("z9", "e4", "")
	assert.ErrorIs(t, err, session.ErrBadSquare)
}

func TestApplyMove_Promotion(t *testing.T) {
	s, err := session.NewState("s1", "8/P7/8/8/8/8/7k/K7 w - - 0 1", models.HumanVsHuman, models.White, nil)
	require.NoError(t, err)

	rec, err := s.ApplyMove("a7", "a8", "q")
	require.NoError(t, err)
	assert.Equal(t, "q", rec.Promotion)
	assert.Equal(t, "a7a8q", rec.UCI)
	assert.Equal(t, "a8=Q", rec.SAN)
}

func TestApplyUCIMove_NormalizesCastling(t *testing.T) {
	// King and rook on home squares, castling rights intact.
	fen := "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1"
	s, err := session.NewState("s1", fen, models.HumanVsHuman, models.White, nil)
	require.NoError(t, err)

	// King-takes-own-rook coordinates are accepted as kingside castling.
	rec, err := s.ApplyUCIMove("e1h1")
	require.NoError(t, err)
	assert.Equal(t, "O-O", rec.SAN)
}

func TestApplyMove_FoolsMate(t *testing.T) {
	s := newPlayingState(t)

	mustMove(t, s, "f2", "f3")
	mustMove(t, s, "e7", "e5")
	mustMove(t, s, "g2", "g4")
	rec, err := s.ApplyMove("d8", "h4", "")
	require.NoError(t, err)

	assert.Equal(t, "Qh4#", rec.SAN)
	assert.Equal(t, models.PhaseEnded, s.Phase())
	assert.Equal(t, models.StatusBlackWon, s.Status())

	snap := s.Snapshot()
	assert.Equal(t, "Checkmate", snap.StatusReason)

	_, err = s.ApplyMove("e2", "e4", "")
	assert.ErrorIs(t, err, session.ErrGameEnded)
}

func TestUndoRedo(t *testing.T) {
	s := newPlayingState(t)

	mustMove(t, s, "e2", "e4")
	mustMove(t, s, "e7", "e5")

	require.NoError(t, s.Undo())
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.MoveCount)
	assert.Equal(t, models.Black, snap.SideToMove)

	require.NoError(t, s.Redo())
	snap = s.Snapshot()
	assert.Equal(t, 2, snap.MoveCount)
	assert.Equal(t, models.White, snap.SideToMove)
	assert.Equal(t, "e5", snap.History[1].SAN)
}

func TestUndo_ClearsEndedPhase(t *testing.T) {
	s := newPlayingState(t)

	mustMove(t, s, "f2", "f3")
	mustMove(t, s, "e7", "e5")
	mustMove(t, s, "g2", "g4")
	mustMove(t, s, "d8", "h4")
	require.Equal(t, models.PhaseEnded, s.Phase())

	require.NoError(t, s.Undo())
	assert.Equal(t, models.PhasePlaying, s.Phase())
	assert.Equal(t, models.StatusOngoing, s.Status())
}

func TestUndo_EmptyHistory(t *testing.T) {
	s := newPlayingState(t)
	assert.ErrorIs(t, s.Undo(), session.ErrIllegalMove)
	assert.ErrorIs(t, s.Redo(), session.ErrIllegalMove)
}

func TestApplyMove_ClearsRedoStack(t *testing.T) {
	s := newPlayingState(t)

	mustMove(t, s, "e2", "e4")
	require.NoError(t, s.Undo())
	mustMove(t, s, "d2", "d4")

	assert.ErrorIs(t, s.Redo(), session.ErrIllegalMove)
}

func TestReset(t *testing.T) {
	s := newPlayingState(t)
	mustMove(t, s, "e2", "e4")

	require.NoError(t, s.Reset(""))
	snap := s.Snapshot()
	assert.Equal(t, session.StartFEN, snap.FEN)
	assert.Equal(t, models.PhasePlaying, snap.Phase)
	assert.Equal(t, 0, snap.MoveCount)
	assert.Empty(t, snap.History)
}

func TestReset_CustomFENEntersSetup(t *testing.T) {
	s := newPlayingState(t)

	require.NoError(t, s.Reset("4k3/8/8/8/8/8/8/4K2R w K - 0 1"))
	assert.Equal(t, models.PhaseSetup, s.Phase())

	// The first move leaves setup.
	mustMove(t, s, "h1", "h8")
	assert.Equal(t, models.PhasePlaying, s.Phase())
}

func TestLegalMoves_FromFilter(t *testing.T) {
	s := newPlayingState(t)

	all, err := s.LegalMoves("")
	require.NoError(t, err)
	assert.Len(t, all, 20)

	knight, err := s.LegalMoves("g1")
	require.NoError(t, err)
	require.Len(t, knight, 2)
	for _, mv := range knight {
		assert.Equal(t, "g1", mv.From)
	}

	_, err = s.LegalMoves("x0")
	assert.ErrorIs(t, err, session.ErrBadSquare)
}

func TestPauseResume(t *testing.T) {
	s := newPlayingState(t)

	require.NoError(t, s.Pause())
	assert.Equal(t, models.PhasePaused, s.Phase())
	assert.ErrorIs(t, s.Pause(), session.ErrAlreadyPaused)

	require.NoError(t, s.Resume())
	assert.Equal(t, models.PhasePlaying, s.Phase())
	assert.ErrorIs(t, s.Resume(), session.ErrNotPaused)
}

func TestSetSkill(t *testing.T) {
	s, err := session.NewState("s1", "", models.HumanVsEngine, models.White,
		&models.EngineConfig{Enabled: true, SkillLevel: 5})
	require.NoError(t, err)

	require.NoError(t, s.SetSkill(12))
	assert.Equal(t, 12, s.Engine().SkillLevel)

	assert.ErrorIs(t, s.SetSkill(21), session.ErrSkillOutOfRange)
	assert.ErrorIs(t, s.SetSkill(-1), session.ErrSkillOutOfRange)

	bare := newPlayingState(t)
	assert.ErrorIs(t, bare.SetSkill(5), session.ErrNoEngine)
}

func TestShouldAutoTrigger(t *testing.T) {
	cfg := &models.EngineConfig{Enabled: true, SkillLevel: 10}

	hve, err := session.NewState("s1", "", models.HumanVsEngine, models.White, cfg)
	require.NoError(t, err)
	assert.False(t, hve.ShouldAutoTrigger(), "white to move is the human")

	mustMove(t, hve, "e2", "e4")
	assert.True(t, hve.ShouldAutoTrigger(), "black to move is the engine")

	eve, err := session.NewState("s2", "", models.EngineVsEngine, models.White, cfg)
	require.NoError(t, err)
	assert.True(t, eve.ShouldAutoTrigger())

	hvh := newPlayingState(t)
	assert.False(t, hvh.ShouldAutoTrigger())
}

func TestTickTimer_FlagFallEndsGame(t *testing.T) {
	s := newPlayingState(t)
	s.SetTimer(&models.TimerConfig{WhiteMs: 0, BlackMs: 60000})

	require.True(t, s.TickTimer())
	assert.Equal(t, models.PhaseEnded, s.Phase())
	assert.Equal(t, models.StatusBlackWon, s.Status())
	assert.Equal(t, "Time expired", s.Snapshot().StatusReason)

	// The flag only falls once.
	assert.False(t, s.TickTimer())
}

func TestFinishedGame(t *testing.T) {
	s, err := session.NewState("s1", "", models.HumanVsEngine, models.Black,
		&models.EngineConfig{Enabled: true, SkillLevel: 8})
	require.NoError(t, err)

	mustMove(t, s, "f2", "f3")
	mustMove(t, s, "e7", "e5")
	mustMove(t, s, "g2", "g4")
	mustMove(t, s, "d8", "h4")

	g := s.FinishedGame("game-1", 1700000000)
	assert.Equal(t, "game-1", g.ID)
	assert.Equal(t, session.StartFEN, g.StartFEN)
	assert.Equal(t, models.ResultBlackWins, g.Result)
	assert.Equal(t, "Checkmate", g.Reason)
	assert.Equal(t, models.HumanVsEngine, g.Mode)
	assert.Equal(t, 8, g.SkillLevel)
	require.NotNil(t, g.HumanSide)
	assert.Equal(t, models.Black, *g.HumanSide)

	require.Len(t, g.Moves, 4)
	assert.Equal(t, 1, g.Moves[0].Ply)
	assert.Equal(t, "f3", g.Moves[0].SAN)
	assert.Equal(t, 4, g.Moves[3].Ply)
	assert.Equal(t, "Qh4#", g.Moves[3].SAN)
}

func TestSearchParams(t *testing.T) {
	tests := []struct {
		skill      int
		depth      int
		movetimeMs int
	}{
		{skill: 0, depth: 4},
		{skill: 3, depth: 4},
		{skill: 5, depth: 8},
		{skill: 10, movetimeMs: 500},
		{skill: 15, movetimeMs: 1000},
		{skill: 20, movetimeMs: 2000},
	}

	for _, tt := range tests {
		params := session.SearchParams(tt.skill)
		if tt.depth != 0 {
			require.NotNil(t, params.Depth, "skill %d", tt.skill)
			assert.Equal(t, tt.depth, *params.Depth)
			assert.Nil(t, params.MovetimeMs)
		} else {
			require.NotNil(t, params.MovetimeMs, "skill %d", tt.skill)
			assert.Equal(t, tt.movetimeMs, *params.MovetimeMs)
			assert.Nil(t, params.Depth)
		}
	}
}

func mustMove(t *testing.T, s *session.State, from, to string) {
	t.Helper()
	_, err := s.ApplyMove(from, to, "")
	require.NoError(t, err)
}
