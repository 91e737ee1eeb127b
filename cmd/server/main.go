package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benediktms/chesstty/internal/api"
	"github.com/benediktms/chesstty/internal/config"
	"github.com/benediktms/chesstty/internal/db"
	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/migration"
	"github.com/benediktms/chesstty/internal/repository/sqlite"
	"github.com/benediktms/chesstty/internal/review"
	"github.com/benediktms/chesstty/internal/session"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("ChessTTY Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("data_dir=%s", cfg.DataDir)
	log.Debug("stockfish_path=%s", cfg.StockfishPath)
	log.Debug("analysis_depth=%d", cfg.AnalysisDepth)
	log.Debug("review_worker_count=%d", cfg.ReviewWorkerCount)
	log.Debug("review_queue_size=%d", cfg.ReviewQueueSize)
	log.Debug("log_level=%s", cfg.LogLevel)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	gameRepo := sqlite.NewGameRepository(database.DB)
	sessionRepo := sqlite.NewSessionRepository(database.DB)
	positionRepo := sqlite.NewPositionRepository(database.DB)
	reviewRepo := sqlite.NewReviewRepository(database.DB)
	advancedRepo := sqlite.NewAdvancedRepository(database.DB)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := positionRepo.SeedDefaults(startupCtx); err != nil {
		log.Error("failed to seed default positions: %v", err)
	}
	if cfg.DataDir != "" {
		legacyGames := filepath.Join(cfg.DataDir, "games")
		if n, err := migration.ImportLegacyGames(startupCtx, legacyGames, gameRepo); err != nil {
			log.Error("legacy game import failed: %v", err)
		} else if n > 0 {
			log.Info("imported %d legacy games from %s", n, legacyGames)
		}
		legacyPositions := filepath.Join(cfg.DataDir, "positions")
		if n, err := migration.ImportLegacyPositions(startupCtx, legacyPositions, positionRepo); err != nil {
			log.Error("legacy position import failed: %v", err)
		} else if n > 0 {
			log.Info("imported %d legacy positions from %s", n, legacyPositions)
		}
	}
	startupCancel()

	sessions := session.NewManager(session.DefaultSpawner(cfg.StockfishPath), gameRepo, sessionRepo, cfg.BroadcastCapacity)
	reviews := review.NewManager(
		gameRepo, reviewRepo, advancedRepo,
		review.DefaultEvaluatorFactory(cfg.StockfishPath),
		cfg.AnalysisDepth, cfg.ReviewWorkerCount, cfg.ReviewQueueSize,
	)

	ctx, cancel := context.WithCancel(context.Background())
	reviews.Start(ctx)

	srv := &api.Server{
		Sessions:  sessions,
		Reviews:   reviews,
		Games:     gameRepo,
		Positions: positionRepo,
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // event streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("closing live sessions")
	sessions.Shutdown(shutdownCtx)

	log.Debug("stopping review workers")
	cancel()
	reviews.Stop()

	log.Info("===========================================")
	log.Info("ChessTTY Server Stopped")
	log.Info("===========================================")
}
