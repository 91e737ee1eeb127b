package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benediktms/chesstty/internal/engine"
	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
)

// CreateConfig describes a new session.
type CreateConfig struct {
	FEN       string // empty = standard start
	Mode      models.GameMode
	HumanSide models.Side
	Engine    *models.EngineConfig
	Timer     *models.TimerConfig
}

// Manager owns the live session registry. It maps ids to actors,
// archives finished games and parks suspended sessions in storage.
type Manager struct {
	log *logger.Logger

	mu     sync.RWMutex
	actors map[string]*Actor

	spawnEngine  SpawnEngineFunc
	games        repository.GameRepository
	suspended    repository.SessionRepository
	broadcastCap int
}

// NewManager builds the registry. broadcastCap bounds each session
// subscriber channel; zero or negative picks the default.
func NewManager(spawn SpawnEngineFunc, games repository.GameRepository, suspended repository.SessionRepository, broadcastCap int) *Manager {
	return &Manager{
		log:          logger.Default().WithPrefix("sessions"),
		actors:       make(map[string]*Actor),
		spawnEngine:  spawn,
		games:        games,
		suspended:    suspended,
		broadcastCap: broadcastCap,
	}
}

// DefaultSpawner builds engine drivers for production use. The path is
// resolved per spawn so a config change needs no restart.
func DefaultSpawner(stockfishPath string) SpawnEngineFunc {
	return func(cfg engine.Config) (EnginePort, error) {
		cfg.Path = stockfishPath
		return engine.Spawn(cfg)
	}
}

// Create builds and registers a new session, returning its id and
// initial snapshot.
func (m *Manager) Create(ctx context.Context, cfg CreateConfig) (string, models.SessionSnapshot, error) {
	id := uuid.NewString()
	mode := cfg.Mode
	if mode == "" {
		mode = models.HumanVsHuman
	}
	humanSide := cfg.HumanSide
	if humanSide == "" {
		humanSide = models.White
	}

	state, err := NewState(id, cfg.FEN, mode, humanSide, cfg.Engine)
	if err != nil {
		return "", models.SessionSnapshot{}, err
	}
	if cfg.Timer != nil {
		state.SetTimer(cfg.Timer)
	}

	actor, err := startActor(state, m.spawnEngine, m.archiveGame, m.broadcastCap)
	if err != nil {
		return "", models.SessionSnapshot{}, err
	}

	m.mu.Lock()
	m.actors[id] = actor
	m.mu.Unlock()

	m.log.Info("created session %s (mode=%s)", id, mode)
	return id, state.Snapshot(), nil
}

// archiveGame persists a finished game. It runs on the actor goroutine
// with its own deadline so storage trouble cannot wedge a session.
func (m *Manager) archiveGame(game models.FinishedGame) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.games.Save(ctx, game); err != nil {
		m.log.Error("archive game %s: %v", game.ID, err)
	}
}

func (m *Manager) actor(id string) (*Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return a, nil
}

// Send delivers a command to a session's mailbox.
func (m *Manager) Send(ctx context.Context, id string, cmd Command) error {
	a, err := m.actor(id)
	if err != nil {
		return err
	}
	select {
	case a.mailbox <- cmd:
		return nil
	case <-a.done:
		return ErrMailboxClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot fetches a session's current view.
func (m *Manager) Snapshot(ctx context.Context, id string) (models.SessionSnapshot, error) {
	reply := make(chan SnapshotReply, 1)
	if err := m.Send(ctx, id, GetSnapshot{Reply: reply}); err != nil {
		return models.SessionSnapshot{}, err
	}
	select {
	case r := <-reply:
		return r.Snapshot, r.Err
	case <-ctx.Done():
		return models.SessionSnapshot{}, ctx.Err()
	}
}

// Subscribe attaches to a session's event stream. The returned cancel
// must be called when the subscriber goes away.
func (m *Manager) Subscribe(ctx context.Context, id string) (models.SessionSnapshot, <-chan Event, func(), error) {
	reply := make(chan SubscribeReply, 1)
	if err := m.Send(ctx, id, Subscribe{Reply: reply}); err != nil {
		return models.SessionSnapshot{}, nil, nil, err
	}
	select {
	case r := <-reply:
		return r.Snapshot, r.Events, r.Cancel, r.Err
	case <-ctx.Done():
		return models.SessionSnapshot{}, nil, nil, ctx.Err()
	}
}

// List returns snapshots of all live sessions.
func (m *Manager) List(ctx context.Context) []models.SessionSnapshot {
	m.mu.RLock()
	ids := make([]string, 0, len(m.actors))
	for id := range m.actors {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	out := make([]models.SessionSnapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := m.Snapshot(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// Close shuts a session down. A concluded game that was not archived
// yet is archived on the way out.
func (m *Manager) Close(ctx context.Context, id string) error {
	a, err := m.actor(id)
	if err != nil {
		return err
	}
	reply := make(chan error, 1)
	if err := m.Send(ctx, id, Shutdown{Reply: reply}); err != nil {
		return err
	}
	select {
	case <-a.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	m.mu.Lock()
	delete(m.actors, id)
	m.mu.Unlock()
	m.log.Info("closed session %s", id)
	return nil
}

// Suspend parks a session: its FEN and settings go to storage, the
// actor terminates. History is not preserved across suspension.
func (m *Manager) Suspend(ctx context.Context, id string) (string, error) {
	snap, err := m.Snapshot(ctx, id)
	if err != nil {
		return "", err
	}
	row := models.SuspendedSession{
		ID:         id,
		FEN:        snap.FEN,
		SideToMove: snap.SideToMove,
		MoveCount:  snap.MoveCount,
		Mode:       snap.Mode,
		CreatedAt:  time.Now().Unix(),
	}
	if snap.Mode == models.HumanVsEngine {
		side := snap.HumanSide
		row.HumanSide = &side
	}
	if snap.EngineConfig != nil {
		row.SkillLevel = snap.EngineConfig.SkillLevel
	}
	if err := m.suspended.Save(ctx, row); err != nil {
		return "", err
	}
	if err := m.Close(ctx, id); err != nil {
		return "", err
	}
	m.log.Info("suspended session %s", id)
	return id, nil
}

// ListSuspended returns all parked sessions.
func (m *Manager) ListSuspended(ctx context.Context) ([]models.SuspendedSession, error) {
	return m.suspended.List(ctx)
}

// ResumeSuspended revives a parked session under a fresh id. The game
// continues from the stored FEN with an empty history.
func (m *Manager) ResumeSuspended(ctx context.Context, suspendedID string) (string, models.SessionSnapshot, error) {
	row, err := m.suspended.Get(ctx, suspendedID)
	if err != nil {
		return "", models.SessionSnapshot{}, err
	}
	cfg := CreateConfig{
		FEN:  row.FEN,
		Mode: row.Mode,
	}
	if row.HumanSide != nil {
		cfg.HumanSide = *row.HumanSide
	}
	if row.Mode != models.HumanVsHuman {
		cfg.Engine = &models.EngineConfig{Enabled: true, SkillLevel: row.SkillLevel}
	}
	id, snap, err := m.Create(ctx, cfg)
	if err != nil {
		return "", models.SessionSnapshot{}, err
	}
	if err := m.suspended.Delete(ctx, suspendedID); err != nil {
		m.log.Warn("delete suspended session %s: %v", suspendedID, err)
	}
	m.log.Info("resumed suspended session %s as %s", suspendedID, id)
	return id, snap, nil
}

// Shutdown closes every live session, typically at server exit.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.actors))
	for id := range m.actors {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		if err := m.Close(ctx, id); err != nil {
			m.log.Warn("close session %s: %v", id, err)
		}
	}
}
