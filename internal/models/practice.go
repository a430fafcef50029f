package models

import "time"

// PracticeSession is one timed practice run over due questions
type PracticeSession struct {
	ID               string
	Section          Section // empty when the session mixes sections
	Topic            string
	TimeLimitSeconds int
	StartedAt        time.Time
	CompletedAt      *time.Time
	TotalQuestions   int
	CorrectAnswers   int
	BestRun          int // longest run of consecutive correct answers
	XPEarned         int
}

// IsCompleted reports whether the session has been closed
func (s *PracticeSession) IsCompleted() bool {
	return s.CompletedAt != nil
}

// TimeLimit returns the allotted time as a duration
func (s *PracticeSession) TimeLimit() time.Duration {
	return time.Duration(s.TimeLimitSeconds) * time.Second
}

// Attempt is a single answer submission. Attempts are never updated.
type Attempt struct {
	ID               int64
	SessionID        string
	QuestionID       int64
	SelectedAnswer   string
	IsCorrect        bool
	Confidence       Confidence
	TimeSpentSeconds int
	AttemptedAt      time.Time
}
