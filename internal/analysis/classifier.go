package analysis

import "github.com/benediktms/chesstty/internal/models"

// Classify grades a move by its centipawn loss. A forced move (the
// only legal reply) is graded as such regardless of loss.
func Classify(cpLoss int, forced bool) models.MoveClassification {
	if forced {
		return models.ClassForced
	}
	switch {
	case cpLoss == 0:
		return models.ClassBest
	case cpLoss <= 20:
		return models.ClassExcellent
	case cpLoss <= 50:
		return models.ClassGood
	case cpLoss <= 100:
		return models.ClassInaccuracy
	case cpLoss <= 200:
		return models.ClassMistake
	default:
		return models.ClassBlunder
	}
}
