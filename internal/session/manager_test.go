package session_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
	"github.com/benediktms/chesstty/internal/session"
)

// memGameRepo is an in-memory GameRepository for manager tests.
type memGameRepo struct {
	mu    sync.Mutex
	games map[string]models.FinishedGame
}

func newMemGameRepo() *memGameRepo {
	return &memGameRepo{games: make(map[string]models.FinishedGame)}
}

func (r *memGameRepo) Save(_ context.Context, g models.FinishedGame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ID] = g
	return nil
}

func (r *memGameRepo) Get(_ context.Context, id string) (*models.FinishedGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (r *memGameRepo) List(_ context.Context, _ repository.GameFilter) ([]models.FinishedGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.FinishedGame, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	return out, nil
}

func (r *memGameRepo) Count(_ context.Context, _ repository.GameFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games), nil
}

func (r *memGameRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.games, id)
	return nil
}

func (r *memGameRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}

// memSessionRepo is an in-memory SessionRepository.
type memSessionRepo struct {
	mu   sync.Mutex
	rows map[string]models.SuspendedSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{rows: make(map[string]models.SuspendedSession)}
}

func (r *memSessionRepo) Save(_ context.Context, s models.SuspendedSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.ID] = s
	return nil
}

func (r *memSessionRepo) Get(_ context.Context, id string) (*models.SuspendedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r *memSessionRepo) List(_ context.Context) ([]models.SuspendedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SuspendedSession, 0, len(r.rows))
	for _, s := range r.rows {
		out = append(out, s)
	}
	return out, nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

func newTestManager(t *testing.T) (*session.Manager, *memGameRepo, *memSessionRepo) {
	t.Helper()
	games := newMemGameRepo()
	suspended := newMemSessionRepo()
	m := session.NewManager(nil, games, suspended, 0)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.Shutdown(ctx)
	})
	return m, games, suspended
}

func managerMove(t *testing.T, m *session.Manager, id, from, to string) models.SessionSnapshot {
	t.Helper()
	ctx := context.Background()
	reply := make(chan session.SnapshotReply, 1)
	require.NoError(t, m.Send(ctx, id, session.MakeMove{From: from, To: to, Reply: reply}))
	select {
	case r := <-reply:
		require.NoError(t, r.Err)
		return r.Snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for move reply")
		panic("unreachable")
	}
}

func TestManager_CreateAndSnapshot(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	id, snap, err := m.Create(ctx, session.CreateConfig{})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, session.StartFEN, snap.FEN)
	assert.Equal(t, models.HumanVsHuman, snap.Mode)
	assert.Equal(t, models.PhasePlaying, snap.Phase)

	got, err := m.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.SessionID)

	assert.Len(t, m.List(ctx), 1)
}

func TestManager_UnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Snapshot(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(ctx, "missing"), session.ErrSessionNotFound)
}

func TestManager_Close(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	id, _, err := m.Create(ctx, session.CreateConfig{})
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx, id))
	_, err = m.Snapshot(ctx, id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.Empty(t, m.List(ctx))
}

func TestManager_ArchivesFinishedGame(t *testing.T) {
	m, games, _ := newTestManager(t)
	ctx := context.Background()

	id, _, err := m.Create(ctx, session.CreateConfig{})
	require.NoError(t, err)

	managerMove(t, m, id, "f2", "f3")
	managerMove(t, m, id, "e7", "e5")
	managerMove(t, m, id, "g2", "g4")
	snap := managerMove(t, m, id, "d8", "h4")
	require.Equal(t, models.PhaseEnded, snap.Phase)

	require.Eventually(t, func() bool {
		return games.len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := games.List(ctx, repository.GameFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.ResultBlackWins, stored[0].Result)
	assert.Equal(t, "Checkmate", stored[0].Reason)
}

func TestManager_SuspendAndResume(t *testing.T) {
	m, _, suspended := newTestManager(t)
	ctx := context.Background()

	id, _, err := m.Create(ctx, session.CreateConfig{})
	require.NoError(t, err)
	managerMove(t, m, id, "e2", "e4")
	managerMove(t, m, id, "g8", "f6")

	suspendedID, err := m.Suspend(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, suspendedID)

	// The live session is gone; the row is parked.
	_, err = m.Snapshot(ctx, id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	rows, err := m.ListSuspended(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].ID)
	assert.Equal(t, 2, rows[0].MoveCount)
	assert.Equal(t, models.White, rows[0].SideToMove)

	newID, snap, err := m.ResumeSuspended(ctx, suspendedID)
	require.NoError(t, err)
	assert.NotEqual(t, suspendedID, newID)
	assert.Equal(t, rows[0].FEN, snap.FEN)
	assert.Equal(t, models.White, snap.SideToMove)
	// History is not restored, but the move count carries through the FEN.
	assert.Empty(t, snap.History)
	assert.Equal(t, 2, snap.MoveCount)

	// The parked row is consumed.
	_, err = suspended.Get(ctx, suspendedID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestManager_ResumeUnknownSuspended(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, _, err := m.ResumeSuspended(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
