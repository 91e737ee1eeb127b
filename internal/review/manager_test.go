package review_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benediktms/chesstty/internal/engine"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
	"github.com/benediktms/chesstty/internal/repository/sqlite"
	"github.com/benediktms/chesstty/internal/review"
	"github.com/benediktms/chesstty/internal/testutil"
)

const (
	startFEN   = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	fenAfterE4 = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPPPPPP/RNBQKBNR b KQkq e3 0 1"
	fenAfterE5 = "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPPPPPP/RNBQKBNR w KQkq e6 0 2"
)

// stubEvaluator answers searches from a FEN-keyed script, so a review
// run is fully deterministic without an engine process.
type stubEvaluator struct {
	mu     sync.Mutex
	evals  map[string]engine.Evaluation
	err    error
	block  bool
	calls  map[string]int
	closed bool
}

func newStubEvaluator(evals map[string]engine.Evaluation) *stubEvaluator {
	return &stubEvaluator{evals: evals, calls: make(map[string]int)}
}

func (s *stubEvaluator) Evaluate(ctx context.Context, fen string, depth int) (engine.Evaluation, error) {
	if s.block {
		<-ctx.Done()
		return engine.Evaluation{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[fen]++
	if s.err != nil {
		return engine.Evaluation{}, s.err
	}
	ev, ok := s.evals[fen]
	if !ok {
		return engine.Evaluation{}, fmt.Errorf("no scripted evaluation for %q", fen)
	}
	return ev, nil
}

func (s *stubEvaluator) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *stubEvaluator) callCount(fen string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[fen]
}

func (s *stubEvaluator) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type reviewFixture struct {
	manager  *review.Manager
	games    repository.GameRepository
	reviews  repository.ReviewRepository
	advanced repository.AdvancedRepository
}

func newReviewFixture(t *testing.T, stub *stubEvaluator, queueSize int) *reviewFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { db.Close() })

	f := &reviewFixture{
		games:    sqlite.NewGameRepository(db),
		reviews:  sqlite.NewReviewRepository(db),
		advanced: sqlite.NewAdvancedRepository(db),
	}
	factory := func() (review.Evaluator, error) { return stub, nil }
	f.manager = review.NewManager(f.games, f.reviews, f.advanced, factory, 12, 1, queueSize)
	return f
}

func archivedGame(id string) models.FinishedGame {
	return models.FinishedGame{
		ID:       id,
		StartFEN: startFEN,
		Moves: []models.StoredMove{
			{Ply: 1, SAN: "e4", UCI: "e2e4", FENAfter: fenAfterE4},
			{Ply: 2, SAN: "e5", UCI: "e7e5", FENAfter: fenAfterE5},
		},
		Result:    models.ResultDraw,
		Reason:    "Draw agreed",
		Mode:      models.HumanVsHuman,
		CreatedAt: 1000,
	}
}

// scriptedEvals makes 1.e4 a best move and 1...e5 a 150cp mistake.
// Scores are from the side to move, as an engine reports them.
func scriptedEvals() map[string]engine.Evaluation {
	return map[string]engine.Evaluation{
		startFEN:   {Score: models.Centipawns(30), BestMoveUCI: "e2e4", PV: []string{"e2e4", "e7e5"}, Depth: 12},
		fenAfterE4: {Score: models.Centipawns(-30), BestMoveUCI: "e7e5", PV: []string{"e7e5", "g1f3"}, Depth: 12},
		fenAfterE5: {Score: models.Centipawns(180), BestMoveUCI: "g1f3", PV: []string{"g1f3"}, Depth: 12},
	}
}

func waitForStatus(t *testing.T, m *review.Manager, gameID string, kind models.ReviewStatusKind) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, err := m.Status(context.Background(), gameID)
		return err == nil && st.Kind == kind
	}, 5*time.Second, 10*time.Millisecond, "review never reached status %q", kind)
}

func TestManager_EnqueueUnknownGame(t *testing.T) {
	f := newReviewFixture(t, newStubEvaluator(nil), 4)
	err := f.manager.Enqueue(context.Background(), "no-such-game")
	assert.ErrorIs(t, err, review.ErrGameNotFound)
}

func TestManager_EnqueueDuplicateIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(t, newStubEvaluator(nil), 1)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))

	// Workers are not started, so the first request stays queued.
	require.NoError(t, f.manager.Enqueue(ctx, "game-1"))
	assert.True(t, f.manager.IsEnqueued("game-1"))

	// Re-enqueueing does not try to push past the full queue.
	assert.NoError(t, f.manager.Enqueue(ctx, "game-1"))
}

func TestManager_EnqueueCompleteKeepsCachedReview(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(t, newStubEvaluator(nil), 4)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))
	require.NoError(t, f.reviews.Save(ctx, models.GameReview{
		GameID:    "game-1",
		Status:    models.ReviewStatus{Kind: models.ReviewComplete},
		CreatedAt: 1000,
	}))

	// The stored review answers; nothing is pushed to the workers.
	require.NoError(t, f.manager.Enqueue(ctx, "game-1"))
	assert.False(t, f.manager.IsEnqueued("game-1"))

	st, err := f.manager.Status(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewComplete, st.Kind)
}

func TestManager_QueueFull(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(t, newStubEvaluator(nil), 1)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))
	require.NoError(t, f.games.Save(ctx, archivedGame("game-2")))

	require.NoError(t, f.manager.Enqueue(ctx, "game-1"))
	err := f.manager.Enqueue(ctx, "game-2")
	assert.ErrorIs(t, err, review.ErrQueueFull)

	// The rejected game must not be left marked as pending.
	assert.False(t, f.manager.IsEnqueued("game-2"))
}

func TestManager_DeleteWhileEnqueued(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(t, newStubEvaluator(nil), 4)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))
	require.NoError(t, f.manager.Enqueue(ctx, "game-1"))

	err := f.manager.Delete(ctx, "game-1")
	assert.ErrorIs(t, err, review.ErrReviewInProgress)
}

func TestManager_RunsFullReview(t *testing.T) {
	ctx := context.Background()
	stub := newStubEvaluator(scriptedEvals())
	f := newReviewFixture(t, stub, 4)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))

	f.manager.Start(ctx)
	defer f.manager.Stop()

	require.NoError(t, f.manager.Enqueue(ctx, "game-1"))
	waitForStatus(t, f.manager, "game-1", models.ReviewComplete)

	rev, err := f.manager.Get(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rev.AnalyzedPlies)
	assert.Equal(t, 2, rev.TotalPlies)
	assert.Equal(t, string(models.ResultDraw), rev.Winner)
	require.NotNil(t, rev.StartedAt)
	require.NotNil(t, rev.CompletedAt)
	require.Len(t, rev.Positions, 2)

	// White's e4 matched the engine's choice.
	first := rev.Positions[0]
	assert.Equal(t, models.ClassBest, first.Classification)
	assert.Equal(t, 0, first.CPLoss)
	assert.Equal(t, "e4", first.BestMoveSAN)
	assert.Equal(t, "e2e4", first.BestMoveUCI)
	assert.Equal(t, models.Centipawns(30), first.EvalBefore)
	assert.Equal(t, models.Centipawns(30), first.EvalAfter)
	assert.Equal(t, models.Centipawns(30), first.EvalBest)
	assert.Equal(t, []string{"e2e4", "e7e5"}, first.PV)

	// Black's reply lost 150cp; evals stay in white's perspective.
	second := rev.Positions[1]
	assert.Equal(t, models.ClassMistake, second.Classification)
	assert.Equal(t, 150, second.CPLoss)
	assert.Equal(t, "e5", second.BestMoveSAN)
	assert.Equal(t, models.Centipawns(30), second.EvalBefore)
	assert.Equal(t, models.Centipawns(180), second.EvalAfter)

	require.NotNil(t, rev.WhiteAccuracy)
	assert.InDelta(t, 100.0, *rev.WhiteAccuracy, 0.001)
	require.NotNil(t, rev.BlackAccuracy)
	assert.InDelta(t, 38.78, *rev.BlackAccuracy, 0.05)

	// The advanced pass ran off the finished review.
	adv, err := f.manager.Advanced(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, "game-1", adv.GameID)
	assert.Equal(t, 1, adv.PipelineVersion)
	assert.Equal(t, 12, adv.ShallowDepth)
	assert.Len(t, adv.Positions, 2)
	assert.Equal(t, models.White, adv.WhitePsychology.Color)
	assert.Equal(t, models.Black, adv.BlackPsychology.Color)

	// Two searches for the position after 1.e4: once as the played
	// reply of ply 1, once as the best line of ply 2.
	assert.Equal(t, 1, stub.callCount(startFEN))
	assert.Equal(t, 2, stub.callCount(fenAfterE4))
	assert.Equal(t, 1, stub.callCount(fenAfterE5))
}

func TestManager_ResumesFromSavedProgress(t *testing.T) {
	ctx := context.Background()
	stub := newStubEvaluator(scriptedEvals())
	f := newReviewFixture(t, stub, 4)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))

	started := int64(1100)
	require.NoError(t, f.reviews.Save(ctx, models.GameReview{
		GameID: "game-1",
		Status: models.ReviewStatus{Kind: models.ReviewFailed, Error: "engine died"},
		Positions: []models.PositionReview{{
			Ply:            1,
			FEN:            fenAfterE4,
			PlayedSAN:      "e4",
			BestMoveSAN:    "e4",
			BestMoveUCI:    "e2e4",
			EvalBefore:     models.Centipawns(30),
			EvalAfter:      models.Centipawns(30),
			EvalBest:       models.Centipawns(30),
			Classification: models.ClassBest,
			PV:             []string{"e2e4", "e7e5"},
			Depth:          12,
		}},
		AnalysisDepth: 12,
		AnalyzedPlies: 1,
		TotalPlies:    2,
		CreatedAt:     1000,
		StartedAt:     &started,
	}))

	f.manager.Start(ctx)
	defer f.manager.Stop()

	require.NoError(t, f.manager.Enqueue(ctx, "game-1"))
	waitForStatus(t, f.manager, "game-1", models.ReviewComplete)

	// Ply 1 was never re-analyzed.
	assert.Equal(t, 0, stub.callCount(startFEN))

	rev, err := f.manager.Get(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rev.AnalyzedPlies)
	require.Len(t, rev.Positions, 2)
	assert.Equal(t, models.ClassMistake, rev.Positions[1].Classification)
	assert.NotNil(t, rev.WhiteAccuracy)
	assert.NotNil(t, rev.BlackAccuracy)
}

func TestManager_RecoversPendingOnStart(t *testing.T) {
	ctx := context.Background()
	stub := newStubEvaluator(scriptedEvals())
	f := newReviewFixture(t, stub, 4)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))
	require.NoError(t, f.reviews.Save(ctx, models.GameReview{
		GameID:        "game-1",
		Status:        models.ReviewStatus{Kind: models.ReviewQueued},
		AnalysisDepth: 12,
		CreatedAt:     1000,
	}))

	// No explicit Enqueue: the queued header alone gets picked up.
	f.manager.Start(ctx)
	defer f.manager.Stop()

	waitForStatus(t, f.manager, "game-1", models.ReviewComplete)
}

func TestManager_MarksFailureOnEngineError(t *testing.T) {
	ctx := context.Background()
	stub := newStubEvaluator(nil)
	stub.err = errors.New("engine crashed")
	f := newReviewFixture(t, stub, 4)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))

	f.manager.Start(ctx)
	defer f.manager.Stop()

	require.NoError(t, f.manager.Enqueue(ctx, "game-1"))
	waitForStatus(t, f.manager, "game-1", models.ReviewFailed)

	st, err := f.manager.Status(ctx, "game-1")
	require.NoError(t, err)
	assert.Contains(t, st.Error, "engine crashed")

	require.Eventually(t, func() bool {
		return !f.manager.IsEnqueued("game-1")
	}, time.Second, 10*time.Millisecond)
}

func TestManager_StopPreservesProgress(t *testing.T) {
	ctx := context.Background()
	stub := newStubEvaluator(nil)
	stub.block = true
	f := newReviewFixture(t, stub, 4)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))

	f.manager.Start(ctx)
	require.NoError(t, f.manager.Enqueue(ctx, "game-1"))

	// The header flips to analyzing before the first blocked search.
	waitForStatus(t, f.manager, "game-1", models.ReviewAnalyzing)
	f.manager.Stop()

	// An interrupted review is not marked failed and keeps its state
	// for the next startup to recover.
	st, err := f.manager.Status(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewAnalyzing, st.Kind)
	assert.True(t, stub.isClosed())
}

func TestManager_DeleteRemovesReviewAndAnalysis(t *testing.T) {
	ctx := context.Background()
	stub := newStubEvaluator(scriptedEvals())
	f := newReviewFixture(t, stub, 4)
	require.NoError(t, f.games.Save(ctx, archivedGame("game-1")))

	f.manager.Start(ctx)
	defer f.manager.Stop()

	require.NoError(t, f.manager.Enqueue(ctx, "game-1"))
	waitForStatus(t, f.manager, "game-1", models.ReviewComplete)

	require.NoError(t, f.manager.Delete(ctx, "game-1"))

	_, err := f.manager.Get(ctx, "game-1")
	assert.ErrorIs(t, err, review.ErrGameNotFound)
	_, err = f.manager.Advanced(ctx, "game-1")
	assert.ErrorIs(t, err, review.ErrGameNotFound)
}
