package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/benediktms/chesstty/internal/logger"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
)

// ImportLegacyGames loads finished games stored as one-JSON-file-per-
// game by earlier releases into the database. Files already imported
// (matched by embedded game id) are skipped; nothing is deleted, so
// the import is safe to re-run.
func ImportLegacyGames(ctx context.Context, dir string, games repository.GameRepository) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("migration")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("no legacy game directory at %s", dir)
			return 0, nil
		}
		return 0, err
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable legacy game %s: %v", entry.Name(), err)
			continue
		}

		var game models.FinishedGame
		if err := json.Unmarshal(data, &game); err != nil {
			log.Warn("skipping malformed legacy game %s: %v", entry.Name(), err)
			continue
		}
		if game.ID == "" {
			log.Warn("skipping legacy game %s: missing id", entry.Name())
			continue
		}

		if _, err := games.Get(ctx, game.ID); err == nil {
			log.Debug("legacy game %s already imported", game.ID)
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return imported, err
		}

		if err := games.Save(ctx, game); err != nil {
			return imported, err
		}
		log.Info("imported legacy game %s (%d moves)", game.ID, len(game.Moves))
		imported++
	}
	if imported > 0 {
		log.Info("legacy import complete: %d games", imported)
	}
	return imported, nil
}

// ImportLegacyPositions loads user-saved positions from the legacy
// one-file-per-position layout. Default positions are owned by the
// seeding step, so imported rows never claim the default flag.
func ImportLegacyPositions(ctx context.Context, dir string, positions repository.PositionRepository) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("migration")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("no legacy position directory at %s", dir)
			return 0, nil
		}
		return 0, err
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warn("skipping unreadable legacy position %s: %v", entry.Name(), err)
			continue
		}

		var pos models.SavedPosition
		if err := json.Unmarshal(data, &pos); err != nil {
			log.Warn("skipping malformed legacy position %s: %v", entry.Name(), err)
			continue
		}
		if pos.ID == "" || pos.FEN == "" {
			log.Warn("skipping legacy position %s: missing id or fen", entry.Name())
			continue
		}
		pos.IsDefault = false

		if _, err := positions.Get(ctx, pos.ID); err == nil {
			log.Debug("legacy position %s already imported", pos.ID)
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return imported, err
		}

		if err := positions.Save(ctx, pos); err != nil {
			return imported, err
		}
		log.Info("imported legacy position %s (%s)", pos.ID, pos.Name)
		imported++
	}
	if imported > 0 {
		log.Info("legacy import complete: %d positions", imported)
	}
	return imported, nil
}
