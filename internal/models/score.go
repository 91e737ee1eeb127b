package models

import (
	"fmt"
	"math"
)

// ScoreType distinguishes centipawn evaluations from forced-mate scores.
type ScoreType string

const (
	ScoreCentipawns ScoreType = "cp"
	ScoreMate       ScoreType = "mate"
)

// Score is a tagged engine evaluation: centipawns or mate-in-N plies.
// The sign is relative to the side the score was produced for.
type Score struct {
	Type  ScoreType `json:"type"`
	Value int       `json:"value"`
}

func Centipawns(v int) Score {
	return Score{Type: ScoreCentipawns, Value: v}
}

func Mate(n int) Score {
	return Score{Type: ScoreMate, Value: n}
}

// Negate flips the score to the opposite side's perspective.
func (s Score) Negate() Score {
	return Score{Type: s.Type, Value: -s.Value}
}

// ToCP converts the score to centipawns. Mate scores map to
// 20000 - n*500 so that nearer mates dominate any positional edge;
// Mate(0) (a delivered mate) maps to the full 20000.
func (s Score) ToCP() int {
	if s.Type == ScoreCentipawns {
		return s.Value
	}
	if s.Value >= 0 {
		return 20000 - s.Value*500
	}
	return -(20000 + s.Value*500)
}

func (s Score) String() string {
	if s.Type == ScoreMate {
		if s.Value >= 0 {
			return fmt.Sprintf("+M%d", s.Value)
		}
		return fmt.Sprintf("-M%d", -s.Value)
	}
	return fmt.Sprintf("%+.2f", float64(s.Value)/100.0)
}

// IsWhitePly reports whether the 1-indexed ply was played by white.
func IsWhitePly(ply int) bool {
	return ply%2 == 1
}

// CappedCPLoss caps a per-move loss for accuracy averaging.
func CappedCPLoss(loss int) float64 {
	return math.Min(float64(loss), 1000)
}
