// Package spacedrep schedules question reviews with a variant of the
// SuperMemo-2 algorithm.
package spacedrep

import (
	"math"
	"time"

	"gmatprep/internal/models"
)

// Quality is the 0-5 response grade fed into SM-2
type Quality int

const (
	// Wrong answer given as a guess
	QualityBlackout Quality = 0
	// Wrong answer given with some confidence
	QualityIncorrect Quality = 1
	// Unused by the confidence mapping, kept for the full SM-2 scale
	QualityIncorrectFamiliar Quality = 2
	// Correct answer that was a guess
	QualityCorrectDifficult Quality = 3
	// Correct answer given while unsure
	QualityCorrectHesitation Quality = 4
	// Correct answer given with full confidence
	QualityPerfect Quality = 5
)

const (
	// PassThreshold is the lowest quality that counts as a passed review
	PassThreshold = QualityCorrectDifficult
	// FailedEasePenalty is subtracted from the ease on a failed review
	FailedEasePenalty = 0.2
	// SecondInterval is the fixed interval after the second consecutive pass
	SecondInterval = 6
)

// Passed reports whether q counts as a successful review
func (q Quality) Passed() bool {
	return q >= PassThreshold
}

// QualityFor maps an answer outcome and the learner's confidence to a quality grade.
// A correct guess still passes; a wrong guess is graded lower than a confident mistake.
func QualityFor(correct bool, confidence models.Confidence) Quality {
	if correct {
		switch confidence {
		case models.ConfidenceConfident:
			return QualityPerfect
		case models.ConfidenceUnsure:
			return QualityCorrectHesitation
		default:
			return QualityCorrectDifficult
		}
	}
	if confidence == models.ConfidenceGuess {
		return QualityBlackout
	}
	return QualityIncorrect
}

// Schedule returns the review state that follows an answer given on today
func Schedule(state models.ReviewState, correct bool, confidence models.Confidence, today time.Time) models.ReviewState {
	return Apply(state, QualityFor(correct, confidence), today)
}

// Apply advances state by one review of the given quality
func Apply(state models.ReviewState, quality Quality, today time.Time) models.ReviewState {
	next := state

	if !quality.Passed() {
		next.IntervalDays = 1
		next.EaseFactor = floorEase(state.EaseFactor - FailedEasePenalty)
		next.RepetitionCount = 0
	} else {
		next.EaseFactor = floorEase(UpdatedEase(state.EaseFactor, quality))

		switch state.RepetitionCount {
		case 0:
			next.IntervalDays = 1
		case 1:
			next.IntervalDays = SecondInterval
		default:
			next.IntervalDays = int(math.Round(float64(state.IntervalDays) * next.EaseFactor))
		}
		if next.IntervalDays < 1 {
			next.IntervalDays = 1
		}
		next.RepetitionCount = state.RepetitionCount + 1
	}

	next.NextReviewDate = models.CalendarDay(today).AddDate(0, 0, next.IntervalDays)
	return next
}

// UpdatedEase applies the classic SM-2 ease formula without the floor
func UpdatedEase(ease float64, quality Quality) float64 {
	miss := 5.0 - float64(quality)
	return ease + (0.1 - miss*(0.08+miss*0.02))
}

func floorEase(ease float64) float64 {
	if ease < models.MinEaseFactor {
		return models.MinEaseFactor
	}
	return ease
}

// IsRetained reports whether a question has settled into long intervals
func IsRetained(state models.ReviewState) bool {
	return state.RepetitionCount >= 3 && state.IntervalDays >= 21
}
