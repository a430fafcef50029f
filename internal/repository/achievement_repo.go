package repository

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/models"
)

// AchievementRepository persists badge lock state
type AchievementRepository struct {
	db database.DBTX
}

func NewAchievementRepository(db database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

type achievementRow struct {
	Code        string       `db:"code"`
	Name        string       `db:"name"`
	Description string       `db:"description"`
	XPReward    int          `db:"xp_reward"`
	UnlockedAt  sql.NullTime `db:"unlocked_at"`
}

// Seed inserts catalog entries that are missing, leaving existing rows untouched
func (r *AchievementRepository) Seed(catalog []models.Achievement) (int, error) {
	query := r.db.GetDialect().InsertIgnoreQuery("achievements", []string{"code", "name", "description", "xp_reward"})

	added := 0
	for _, a := range catalog {
		result, err := r.db.Exec(query, string(a.Code), a.Name, a.Description, a.XPReward)
		if err != nil {
			return added, errors.Wrapf(err, "failed to seed achievement %s", a.Code)
		}
		if n, err := result.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	return added, nil
}

// List returns every stored achievement
func (r *AchievementRepository) List() ([]models.Achievement, error) {
	var rows []achievementRow
	query := `SELECT code, name, description, xp_reward, unlocked_at FROM achievements ORDER BY code`
	if err := r.db.Select(&rows, query); err != nil {
		return nil, errors.Wrap(err, "failed to list achievements")
	}

	out := make([]models.Achievement, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Achievement{
			Code:        models.AchievementCode(row.Code),
			Name:        row.Name,
			Description: row.Description,
			XPReward:    row.XPReward,
			UnlockedAt:  timePtr(row.UnlockedAt),
		})
	}
	return out, nil
}

// MarkUnlocked sets unlocked_at only while it is still NULL. It reports
// whether this call performed the unlock.
func (r *AchievementRepository) MarkUnlocked(code models.AchievementCode, at time.Time) (bool, error) {
	query := `UPDATE achievements SET unlocked_at = ? WHERE code = ? AND unlocked_at IS NULL`
	result, err := r.db.Exec(query, at.UTC(), string(code))
	if err != nil {
		return false, errors.Wrapf(err, "failed to unlock %s", code)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return n == 1, nil
}
