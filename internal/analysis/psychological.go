package analysis

import (
	"math"

	"github.com/benediktms/chesstty/internal/models"
)

const (
	swingThresholdCP  = 100
	blunderWindowSize = 5
)

func isError(c models.MoveClassification) bool {
	switch c {
	case models.ClassInaccuracy, models.ClassMistake, models.ClassBlunder:
		return true
	}
	return false
}

func isGoodMove(c models.MoveClassification) bool {
	switch c {
	case models.ClassBrilliant, models.ClassBest, models.ClassExcellent, models.ClassGood:
		return true
	}
	return false
}

// Psychology builds one player's profile from a reviewed game: error
// streaks, momentum swings, blunder clustering, time usage and
// per-phase accuracy.
func Psychology(positions []models.PositionReview, side models.Side) models.PsychologicalProfile {
	profile := models.PsychologicalProfile{Color: side}

	var own []models.PositionReview
	for _, p := range positions {
		if models.IsWhitePly(p.Ply) == (side == models.White) {
			own = append(own, p)
		}
	}

	analyzeErrorStreaks(&profile, own)
	analyzeSwings(&profile, positions, side)
	analyzeBlunderClusters(&profile, own)
	analyzeTimeUsage(&profile, own)
	analyzePhases(&profile, own)
	return profile
}

func analyzeErrorStreaks(profile *models.PsychologicalProfile, own []models.PositionReview) {
	streak := 0
	streakStart := 0
	for _, p := range own {
		if isError(p.Classification) {
			if streak == 0 {
				streakStart = p.Ply
			}
			streak++
			if streak > profile.MaxConsecutiveErrors {
				profile.MaxConsecutiveErrors = streak
				start := streakStart
				profile.ErrorStreakStartPly = &start
			}
		} else {
			streak = 0
		}
	}
}

// analyzeSwings walks consecutive eval pairs. Only pairs ending on the
// player's own ply count; a run of favorable swings is momentum.
func analyzeSwings(profile *models.PsychologicalProfile, positions []models.PositionReview, side models.Side) {
	momentum := 0
	for i := 1; i < len(positions); i++ {
		curr := positions[i]
		if models.IsWhitePly(curr.Ply) != (side == models.White) {
			continue
		}
		delta := curr.EvalAfter.ToCP() - positions[i-1].EvalAfter.ToCP()
		favorable := delta
		if side == models.Black {
			favorable = -delta
		}
		switch {
		case favorable > swingThresholdCP:
			profile.FavorableSwings++
			momentum++
			if momentum > profile.MaxMomentumStreak {
				profile.MaxMomentumStreak = momentum
			}
		case favorable < -swingThresholdCP:
			profile.UnfavorableSwings++
			momentum = 0
		default:
			momentum = 0
		}
	}
}

// analyzeBlunderClusters finds the densest stretch of blunders. Short
// games are treated as a single window.
func analyzeBlunderClusters(profile *models.PsychologicalProfile, own []models.PositionReview) {
	if len(own) < blunderWindowSize {
		count := 0
		first, last := 0, 0
		for _, p := range own {
			if p.Classification == models.ClassBlunder {
				if count == 0 {
					first = p.Ply
				}
				last = p.Ply
				count++
			}
		}
		profile.BlunderClusterDensity = count
		if count > 0 {
			profile.BlunderClusterRange = &models.PlyRange{Start: first, End: last}
		}
		return
	}

	best := 0
	var bestRange *models.PlyRange
	for i := 0; i+blunderWindowSize <= len(own); i++ {
		window := own[i : i+blunderWindowSize]
		count := 0
		for _, p := range window {
			if p.Classification == models.ClassBlunder {
				count++
			}
		}
		if count > best {
			best = count
			bestRange = &models.PlyRange{Start: window[0].Ply, End: window[blunderWindowSize-1].Ply}
		}
	}
	profile.BlunderClusterDensity = best
	profile.BlunderClusterRange = bestRange
}

// analyzeTimeUsage correlates thinking time with move quality when
// clock data exists.
func analyzeTimeUsage(profile *models.PsychologicalProfile, own []models.PositionReview) {
	hasClocks := false
	for _, p := range own {
		if p.ClockMs != nil {
			hasClocks = true
			break
		}
	}
	if !hasClocks {
		return
	}

	var blunderTimes, goodTimes []int64
	var times, losses []float64
	for i := 1; i < len(own); i++ {
		prev, curr := own[i-1], own[i]
		if prev.ClockMs == nil || curr.ClockMs == nil {
			continue
		}
		spent := *prev.ClockMs - *curr.ClockMs
		if spent < 0 {
			spent = 0
		}
		if curr.Classification == models.ClassBlunder {
			blunderTimes = append(blunderTimes, spent)
		}
		if isGoodMove(curr.Classification) {
			goodTimes = append(goodTimes, spent)
		}
		times = append(times, float64(spent))
		losses = append(losses, float64(curr.CPLoss))
	}

	if len(blunderTimes) > 0 {
		avg := sumInt64(blunderTimes) / int64(len(blunderTimes))
		profile.AvgBlunderTimeMs = &avg
	}
	if len(goodTimes) > 0 {
		avg := sumInt64(goodTimes) / int64(len(goodTimes))
		profile.AvgGoodMoveTimeMs = &avg
	}
	if len(times) >= 3 {
		corr := pearson(times, losses)
		profile.TimeQualityCorrelation = &corr
	}
}

func analyzePhases(profile *models.PsychologicalProfile, own []models.PositionReview) {
	var opening, middlegame, endgame []int
	for _, p := range own {
		switch {
		case p.Ply <= 30:
			opening = append(opening, p.CPLoss)
		case p.Ply <= 70:
			middlegame = append(middlegame, p.CPLoss)
		default:
			endgame = append(endgame, p.CPLoss)
		}
	}
	profile.OpeningAvgCPLoss = avgInt(opening)
	profile.MiddlegameAvgCPLoss = avgInt(middlegame)
	profile.EndgameAvgCPLoss = avgInt(endgame)
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	denom := math.Sqrt(varX * varY)
	if denom < 1e-9 {
		return 0
	}
	return cov / denom
}

func sumInt64(vs []int64) int64 {
	var total int64
	for _, v := range vs {
		total += v
	}
	return total
}

func avgInt(vs []int) float64 {
	if len(vs) == 0 {
		return 0.0
	}
	total := 0
	for _, v := range vs {
		total += v
	}
	return float64(total) / float64(len(vs))
}
