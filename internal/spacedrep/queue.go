package spacedrep

import (
	"sort"
	"time"

	"gmatprep/internal/models"
)

// IsDue reports whether the question's next review date is on or before now's calendar day
func IsDue(state models.ReviewState, now time.Time) bool {
	return models.CompareDays(state.NextReviewDate, now) <= 0
}

// DueQueue picks the questions due on now and orders them for practice:
// questions never passed come first, then the hardest (lowest ease),
// then the most overdue. A limit of zero or less returns every due question.
func DueQueue(questions []models.Question, now time.Time, limit int) []models.Question {
	var due []models.Question
	for _, q := range questions {
		if IsDue(q.Review, now) {
			due = append(due, q)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].Review, due[j].Review

		if (a.RepetitionCount == 0) != (b.RepetitionCount == 0) {
			return a.RepetitionCount == 0
		}
		if a.EaseFactor != b.EaseFactor {
			return a.EaseFactor < b.EaseFactor
		}
		if c := models.CompareDays(a.NextReviewDate, b.NextReviewDate); c != 0 {
			return c < 0
		}
		return due[i].ID < due[j].ID
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}
