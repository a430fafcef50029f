package repository

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/models"
)

// Store groups every repository over one connection or transaction
type Store struct {
	Questions    *QuestionRepository
	Attempts     *AttemptRepository
	Sessions     *PracticeRepository
	Mastery      *MasteryRepository
	Stats        *StatsRepository
	Achievements *AchievementRepository
}

// NewStore builds repositories that all run against db
func NewStore(db database.DBTX) *Store {
	return &Store{
		Questions:    NewQuestionRepository(db),
		Attempts:     NewAttemptRepository(db),
		Sessions:     NewPracticeRepository(db),
		Mastery:      NewMasteryRepository(db),
		Stats:        NewStatsRepository(db),
		Achievements: NewAchievementRepository(db),
	}
}

func formatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid stored date %q", s)
	}
	return t, nil
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
