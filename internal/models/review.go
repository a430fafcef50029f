package models

import "time"

const (
	// DefaultEaseFactor is the ease a freshly logged question starts with
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor enforced on every ease update
	MinEaseFactor = 1.3
)

// ReviewState is the spaced-repetition state of a question
type ReviewState struct {
	IntervalDays    int
	EaseFactor      float64
	RepetitionCount int
	NextReviewDate  time.Time
}

// NewReviewState returns the state of a question logged on the given day
func NewReviewState(today time.Time) ReviewState {
	return ReviewState{
		IntervalDays:    1,
		EaseFactor:      DefaultEaseFactor,
		RepetitionCount: 0,
		NextReviewDate:  CalendarDay(today),
	}
}
