package review

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/benediktms/chesstty/internal/engine"
	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
)

var (
	ErrQueueFull        = errors.New("review queue is full")
	ErrReviewInProgress = errors.New("review is queued or in progress")
	ErrGameNotFound     = errors.New("game not found")
)

// Evaluator is the slice of the engine driver the review worker needs.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth int) (engine.Evaluation, error)
	Close()
}

// EvaluatorFactory builds one evaluator per worker, so workers never
// share an engine process.
type EvaluatorFactory func() (Evaluator, error)

// DefaultEvaluatorFactory spawns a full-strength engine for analysis.
func DefaultEvaluatorFactory(stockfishPath string) EvaluatorFactory {
	return func() (Evaluator, error) {
		threads := 1
		return engine.Spawn(engine.Config{
			Path:       stockfishPath,
			SkillLevel: 20,
			Threads:    &threads,
		})
	}
}

// Manager runs post-game reviews on a bounded queue of game ids. Each
// worker owns its own engine; progress is persisted per ply so an
// interrupted review resumes where it stopped.
type Manager struct {
	log *logger.Logger

	games    repository.GameRepository
	reviews  repository.ReviewRepository
	advanced repository.AdvancedRepository

	newEvaluator EvaluatorFactory
	depth        int
	workers      int

	queue  chan string
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu       sync.RWMutex
	enqueued map[string]struct{}
}

func NewManager(games repository.GameRepository, reviews repository.ReviewRepository, advanced repository.AdvancedRepository, factory EvaluatorFactory, depth, workers, queueSize int) *Manager {
	if depth <= 0 {
		depth = 12
	}
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	log := logger.Default().WithPrefix("review")
	log.Debug("creating review manager with %d workers, queue size %d, depth %d", workers, queueSize, depth)
	return &Manager{
		log:          log,
		games:        games,
		reviews:      reviews,
		advanced:     advanced,
		newEvaluator: factory,
		depth:        depth,
		workers:      workers,
		queue:        make(chan string, queueSize),
		enqueued:     make(map[string]struct{}),
	}
}

// Start launches the workers and re-enqueues reviews that were pending
// when the server last stopped.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.log.Info("starting review manager with %d workers", m.workers)

	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx, i+1)
	}

	m.recoverPending(ctx)
}

func (m *Manager) recoverPending(ctx context.Context) {
	ids, err := m.reviews.ListUnfinished(ctx)
	if err != nil {
		m.log.Error("failed to list unfinished reviews: %v", err)
		return
	}
	for _, id := range ids {
		if err := m.push(id); err != nil {
			m.log.Warn("could not re-enqueue review %s: %v", id, err)
		} else {
			m.log.Info("recovered pending review for game %s", id)
		}
	}
}

// Stop cancels running reviews and waits for the workers. In-flight
// reviews keep their persisted progress.
func (m *Manager) Stop() {
	m.log.Info("stopping review manager")
	if m.cancel != nil {
		m.cancel()
	}
	close(m.queue)
	m.wg.Wait()
	m.log.Info("review manager stopped")
}

// Enqueue requests a review for a finished game. Re-enqueueing a game
// that is already waiting is a no-op, and a game with a complete review
// keeps its cached result without re-running the worker.
func (m *Manager) Enqueue(ctx context.Context, gameID string) error {
	if _, err := m.games.Get(ctx, gameID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGameNotFound
		}
		return err
	}

	m.mu.RLock()
	_, pending := m.enqueued[gameID]
	m.mu.RUnlock()
	if pending {
		m.log.Debug("game %s already enqueued", gameID)
		return nil
	}

	existing, err := m.reviews.Get(ctx, gameID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if existing != nil && existing.Status.Kind == models.ReviewComplete {
		m.log.Debug("game %s already reviewed, serving cached result", gameID)
		return nil
	}

	// A failed or interrupted review restarts from its saved progress;
	// a fresh game gets a queued header first.
	if existing == nil {
		header := models.GameReview{
			GameID:        gameID,
			Status:        models.ReviewStatus{Kind: models.ReviewQueued},
			AnalysisDepth: m.depth,
			CreatedAt:     time.Now().Unix(),
		}
		if err := m.reviews.Save(ctx, header); err != nil {
			return err
		}
	}

	return m.push(gameID)
}

func (m *Manager) push(gameID string) error {
	m.mu.Lock()
	if _, ok := m.enqueued[gameID]; ok {
		m.mu.Unlock()
		return nil
	}
	m.enqueued[gameID] = struct{}{}
	m.mu.Unlock()

	select {
	case m.queue <- gameID:
		m.log.Info("enqueued review for game %s", gameID)
		return nil
	default:
		m.mu.Lock()
		delete(m.enqueued, gameID)
		m.mu.Unlock()
		return ErrQueueFull
	}
}

func (m *Manager) release(gameID string) {
	m.mu.Lock()
	delete(m.enqueued, gameID)
	m.mu.Unlock()
}

// IsEnqueued reports whether a game's review is waiting or running.
// Finished games cannot be deleted while this holds.
func (m *Manager) IsEnqueued(gameID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.enqueued[gameID]
	return ok
}

// Status returns the review lifecycle state for a game.
func (m *Manager) Status(ctx context.Context, gameID string) (models.ReviewStatus, error) {
	rev, err := m.reviews.Get(ctx, gameID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ReviewStatus{}, ErrGameNotFound
		}
		return models.ReviewStatus{}, err
	}
	return rev.Status, nil
}

// Get returns the full review for a game.
func (m *Manager) Get(ctx context.Context, gameID string) (*models.GameReview, error) {
	rev, err := m.reviews.Get(ctx, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	return rev, err
}

// Delete removes a stored review and its advanced analysis. Reviews
// still in the queue cannot be deleted.
func (m *Manager) Delete(ctx context.Context, gameID string) error {
	if m.IsEnqueued(gameID) {
		return ErrReviewInProgress
	}
	if err := m.advanced.Delete(ctx, gameID); err != nil {
		return err
	}
	return m.reviews.Delete(ctx, gameID)
}

// Advanced returns the stored advanced analysis for a game.
func (m *Manager) Advanced(ctx context.Context, gameID string) (*models.AdvancedGameAnalysis, error) {
	a, err := m.advanced.Get(ctx, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	return a, err
}

func (m *Manager) worker(ctx context.Context, id int) {
	defer m.wg.Done()
	log := m.log.WithField("worker_id", id)
	log.Debug("review worker started")

	var evaluator Evaluator
	defer func() {
		if evaluator != nil {
			evaluator.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug("review worker shutting down")
			return
		case gameID, ok := <-m.queue:
			if !ok {
				return
			}
			if evaluator == nil {
				ev, err := m.newEvaluator()
				if err != nil {
					log.Error("failed to start evaluator: %v", err)
					m.failReview(gameID, "engine unavailable: "+err.Error())
					m.release(gameID)
					continue
				}
				evaluator = ev
			}

			jobCtx := logger.NewContext(ctx, log.WithField("game", gameID))
			start := time.Now()
			if err := m.runReview(jobCtx, evaluator, gameID); err != nil {
				if errors.Is(err, context.Canceled) {
					log.Info("review of %s interrupted, progress saved", gameID)
				} else {
					log.Error("review of %s failed after %v: %v", gameID, time.Since(start), err)
					m.failReview(gameID, err.Error())
				}
			} else {
				log.Info("review of %s completed in %v", gameID, time.Since(start))
			}
			m.release(gameID)
		}
	}
}

// failReview marks a review failed with its error text. It uses a
// fresh context: the failure must land even during shutdown.
func (m *Manager) failReview(gameID, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rev, err := m.reviews.Get(ctx, gameID)
	if err != nil {
		m.log.Error("failed to load review %s for failure marking: %v", gameID, err)
		return
	}
	rev.Status = models.ReviewStatus{Kind: models.ReviewFailed, Error: msg}
	rev.Positions = nil // keep existing rows, header-only update
	if err := m.reviews.Save(ctx, *rev); err != nil {
		m.log.Error("failed to mark review %s failed: %v", gameID, err)
	}
}
