package migration_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benediktms/chesstty/internal/migration"
	"github.com/benediktms/chesstty/internal/models"
	"github.com/benediktms/chesstty/internal/repository"
	"github.com/benediktms/chesstty/internal/repository/sqlite"
	"github.com/benediktms/chesstty/internal/testutil"
)

func newGameRepo(t *testing.T) repository.GameRepository {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewGameRepository(db)
}

func legacyGame(id string) models.FinishedGame {
	return models.FinishedGame{
		ID:       id,
		StartFEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Moves: []models.StoredMove{
			{Ply: 1, SAN: "e4", UCI: "e2e4", FENAfter: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPPPPPP/RNBQKBNR b KQkq e3 0 1"},
		},
		Result:    models.ResultDraw,
		Reason:    "Draw agreed",
		Mode:      models.HumanVsHuman,
		CreatedAt: 1000,
	}
}

func writeGameFile(t *testing.T, dir, name string, game models.FinishedGame) {
	t.Helper()
	data, err := json.Marshal(game)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestImportLegacyGames(t *testing.T) {
	ctx := context.Background()
	games := newGameRepo(t)
	dir := t.TempDir()

	writeGameFile(t, dir, "first.json", legacyGame("legacy-1"))
	writeGameFile(t, dir, "second.json", legacyGame("legacy-2"))

	n, err := migration.ImportLegacyGames(ctx, dir, games)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := games.Get(ctx, "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, "e4", got.Moves[0].SAN)
	assert.Equal(t, models.ResultDraw, got.Result)

	// Source files stay in place.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestImportLegacyGames_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	games := newGameRepo(t)
	dir := t.TempDir()
	writeGameFile(t, dir, "game.json", legacyGame("legacy-1"))

	n, err := migration.ImportLegacyGames(ctx, dir, games)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// A second run finds the game already stored and imports nothing.
	n, err = migration.ImportLegacyGames(ctx, dir, games)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestImportLegacyGames_SkipsBadFiles(t *testing.T) {
	ctx := context.Background()
	games := newGameRepo(t)
	dir := t.TempDir()

	writeGameFile(t, dir, "good.json", legacyGame("legacy-1"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))
	writeGameFile(t, dir, "anonymous.json", legacyGame(""))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	n, err := migration.ImportLegacyGames(ctx, dir, games)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = games.Get(ctx, "legacy-1")
	assert.NoError(t, err)
}

func TestImportLegacyGames_MissingDir(t *testing.T) {
	games := newGameRepo(t)

	n, err := migration.ImportLegacyGames(context.Background(), filepath.Join(t.TempDir(), "nope"), games)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestImportLegacyPositions(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { db.Close() })
	positions := sqlite.NewPositionRepository(db)
	dir := t.TempDir()

	// Legacy files claiming the default flag are demoted on import.
	saved := models.SavedPosition{
		ID:        "pos-1",
		Name:      "Italian Game",
		FEN:       "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
		IsDefault: true,
		CreatedAt: 1000,
	}
	data, err := json.Marshal(saved)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "italian.json"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nofen.json"), []byte(`{"id":"pos-2","name":"empty"}`), 0o644))

	n, err := migration.ImportLegacyPositions(ctx, dir, positions)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := positions.Get(ctx, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, "Italian Game", got.Name)
	assert.False(t, got.IsDefault)

	// Second run imports nothing.
	n, err = migration.ImportLegacyPositions(ctx, dir, positions)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
