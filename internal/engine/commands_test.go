package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetPosition_Encode(t *testing.T) {
	tests := []struct {
		name     string
		cmd      SetPosition
		expected string
	}{
		{
			name:     "startpos",
			cmd:      SetPosition{},
			expected: "position startpos",
		},
		{
			name:     "explicit startpos keyword",
			cmd:      SetPosition{FEN: "startpos"},
			expected: "position startpos",
		},
		{
			name:     "startpos with moves",
			cmd:      SetPosition{Moves: []string{"e2e4", "e7e5"}},
			expected: "position startpos moves e2e4 e7e5",
		},
		{
			name:     "fen",
			cmd:      SetPosition{FEN: "8/8/8/8/8/8/8/K1k5 w - - 0 1"},
			expected: "position fen 8/8/8/8/8/8/8/K1k5 w - - 0 1",
		},
		{
			name:     "fen with moves",
			cmd:      SetPosition{FEN: "8/8/8/8/8/8/8/K1k5 w - - 0 1", Moves: []string{"a1a2"}},
			expected: "position fen 8/8/8/8/8/8/8/K1k5 w - - 0 1 moves a1a2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cmd.encode())
		})
	}
}

func TestGo_Encode(t *testing.T) {
	depth := 12
	movetime := 500

	assert.Equal(t, "go depth 12", Go{Depth: &depth}.encode())
	assert.Equal(t, "go movetime 500", Go{MovetimeMs: &movetime}.encode())
	assert.Equal(t, "go infinite", Go{Infinite: true}.encode())
	assert.Equal(t, "go", Go{}.encode())

	// Infinite takes precedence when several limits are set.
	assert.Equal(t, "go infinite", Go{Depth: &depth, MovetimeMs: &movetime, Infinite: true}.encode())
	// Depth beats movetime.
	assert.Equal(t, "go depth 12", Go{Depth: &depth, MovetimeMs: &movetime}.encode())
}

func TestSimpleCommands_Encode(t *testing.T) {
	assert.Equal(t, "setoption name Skill Level value 5", SetOption{Name: "Skill Level", Value: "5"}.encode())
	assert.Equal(t, "stop", Stop{}.encode())
	assert.Equal(t, "quit", Quit{}.encode())
}
