package repository

import (
	"database/sql"

	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/models"
)

// statsID is the primary key of the only user_stats row
const statsID = 1

// StatsRepository reads and writes the UserStats singleton
type StatsRepository struct {
	db database.DBTX
}

func NewStatsRepository(db database.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

type statsRow struct {
	TotalXP          int            `db:"total_xp"`
	CurrentStreak    int            `db:"current_streak"`
	LongestStreak    int            `db:"longest_streak"`
	LastPracticeDate sql.NullString `db:"last_practice_date"`
}

// Ensure creates the singleton row if it does not exist yet
func (r *StatsRepository) Ensure() error {
	query := r.db.GetDialect().InsertIgnoreQuery("user_stats", []string{"id"})
	_, err := r.db.Exec(query, statsID)
	return errors.Wrap(err, "failed to create user stats")
}

// Get loads the singleton. A missing row reads as zero stats.
func (r *StatsRepository) Get() (models.UserStats, error) {
	var row statsRow
	query := `SELECT total_xp, current_streak, longest_streak, last_practice_date FROM user_stats WHERE id = ?`
	err := r.db.Get(&row, query, statsID)
	if err == sql.ErrNoRows {
		return models.UserStats{}, nil
	}
	if err != nil {
		return models.UserStats{}, errors.Wrap(err, "failed to load user stats")
	}

	last, err := parseNullDate(row.LastPracticeDate)
	if err != nil {
		return models.UserStats{}, err
	}
	return models.UserStats{
		TotalXP:          row.TotalXP,
		CurrentStreak:    row.CurrentStreak,
		LongestStreak:    row.LongestStreak,
		LastPracticeDate: last,
	}, nil
}

// Update stores stats in the singleton row
func (r *StatsRepository) Update(stats models.UserStats) error {
	if err := r.Ensure(); err != nil {
		return err
	}

	query := `
		UPDATE user_stats
		SET total_xp = ?, current_streak = ?, longest_streak = ?, last_practice_date = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		stats.TotalXP, stats.CurrentStreak, stats.LongestStreak, nullDate(stats.LastPracticeDate), statsID,
	)
	return errors.Wrap(err, "failed to update user stats")
}
