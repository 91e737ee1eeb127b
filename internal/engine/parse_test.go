package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benediktms/chesstty/internal/models"
)

func TestParseLine_Handshake(t *testing.T) {
	assert.Equal(t, EventUCIOk, parseLine("uciok").Kind)
	assert.Equal(t, EventReadyOk, parseLine("readyok").Kind)

	ev := parseLine("id name Stockfish 16")
	assert.Equal(t, EventID, ev.Kind)
	assert.Equal(t, "name", ev.Name)
	assert.Equal(t, "Stockfish 16", ev.Value)

	ev = parseLine("id author the Stockfish developers")
	assert.Equal(t, EventID, ev.Kind)
	assert.Equal(t, "author", ev.Name)
	assert.Equal(t, "the Stockfish developers", ev.Value)
}

func TestParseLine_BestMove(t *testing.T) {
	ev := parseLine("bestmove e2e4")
	assert.Equal(t, EventBestMove, ev.Kind)
	assert.Equal(t, "e2e4", ev.BestMove)
	assert.Empty(t, ev.Ponder)

	ev = parseLine("bestmove g1f3 ponder b8c6")
	assert.Equal(t, EventBestMove, ev.Kind)
	assert.Equal(t, "g1f3", ev.BestMove)
	assert.Equal(t, "b8c6", ev.Ponder)
}

func TestParseLine_BestMoveNone(t *testing.T) {
	ev := parseLine("bestmove (none)")
	assert.Equal(t, EventError, ev.Kind)
	assert.NotEmpty(t, ev.Err)

	ev = parseLine("bestmove")
	assert.Equal(t, EventError, ev.Kind)
}

func TestParseLine_InfoCentipawns(t *testing.T) {
	ev := parseLine("info depth 18 seldepth 24 score cp 35 nodes 123456 nps 987654 time 250 pv e2e4 e7e5 g1f3")
	require.Equal(t, EventInfo, ev.Kind)
	require.NotNil(t, ev.Info)

	info := ev.Info
	require.NotNil(t, info.Depth)
	assert.Equal(t, 18, *info.Depth)
	require.NotNil(t, info.SelDepth)
	assert.Equal(t, 24, *info.SelDepth)
	require.NotNil(t, info.Score)
	assert.Equal(t, models.Centipawns(35), *info.Score)
	require.NotNil(t, info.Nodes)
	assert.Equal(t, int64(123456), *info.Nodes)
	require.NotNil(t, info.NPS)
	assert.Equal(t, int64(987654), *info.NPS)
	require.NotNil(t, info.TimeMs)
	assert.Equal(t, int64(250), *info.TimeMs)
	assert.Equal(t, []string{"e2e4", "e7e5", "g1f3"}, info.PV)
}

func TestParseLine_InfoMate(t *testing.T) {
	ev := parseLine("info depth 12 score mate -3 pv h7h8q")
	require.Equal(t, EventInfo, ev.Kind)
	require.NotNil(t, ev.Info.Score)
	assert.Equal(t, models.Mate(-3), *ev.Info.Score)
	assert.Equal(t, []string{"h7h8q"}, ev.Info.PV)
}

func TestParseLine_InfoWithoutPayloadIsDebug(t *testing.T) {
	// Lines like "info string ..." carry nothing we track.
	ev := parseLine("info string NNUE evaluation using nn-5af11540bbfe.nnue")
	assert.Equal(t, EventDebug, ev.Kind)
	assert.Equal(t, DirFromEngine, ev.Direction)
}

func TestParseLine_UnknownIsDebug(t *testing.T) {
	ev := parseLine("Stockfish 16 by the Stockfish developers (see AUTHORS file)")
	assert.Equal(t, EventDebug, ev.Kind)
	assert.Equal(t, DirFromEngine, ev.Direction)
	assert.Contains(t, ev.Line, "Stockfish 16")
}
