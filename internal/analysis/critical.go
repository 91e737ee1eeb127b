package analysis

import (
	"github.com/benediktms/chesstty/internal/models"
)

const (
	criticalCPLoss     = 50
	criticalEvalSwing  = 150
	criticalVolatility = 0.6
	criticalExposure   = 0.7
	criticalMinSignals = 2
)

// IsCritical decides whether a position deserves a deeper look. At
// least two independent signals must fire: a real mistake, a large
// eval swing, tactical motifs on the board, high volatility, or an
// exposed king.
func IsCritical(review models.PositionReview, prev *models.PositionReview, adv models.AdvancedPositionAnalysis) bool {
	signals := 0

	if review.CPLoss > criticalCPLoss {
		signals++
	}
	if prev != nil {
		swing := review.EvalAfter.ToCP() - prev.EvalAfter.ToCP()
		if swing < 0 {
			swing = -swing
		}
		if swing > criticalEvalSwing {
			signals++
		}
	}
	if len(adv.TacticsBefore.Tags) > 0 || len(adv.TacticsAfter.Tags) > 0 {
		signals++
	}
	if adv.Tension.VolatilityScore > criticalVolatility {
		signals++
	}
	if adv.KingSafety.White.ExposureScore > criticalExposure || adv.KingSafety.Black.ExposureScore > criticalExposure {
		signals++
	}
	return signals >= criticalMinSignals
}
