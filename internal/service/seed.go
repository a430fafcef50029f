package service

import (
	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/progress"
	"gmatprep/internal/repository"
	"gmatprep/internal/taxonomy"
)

// SeedResult reports how many rows seeding added
type SeedResult struct {
	Topics       int
	Achievements int
}

// SeedDefaults creates the mastery rows for the whole taxonomy, the
// achievement catalog and the stats singleton. Existing rows are kept.
func SeedDefaults(db *database.DB) (SeedResult, error) {
	var result SeedResult

	err := db.WithTx(func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		topics, err := store.Mastery.Seed(taxonomy.All())
		if err != nil {
			return err
		}
		achievements, err := store.Achievements.Seed(progress.Catalog())
		if err != nil {
			return err
		}
		if err := store.Stats.Ensure(); err != nil {
			return err
		}

		result = SeedResult{Topics: topics, Achievements: achievements}
		return nil
	})
	return result, errors.Wrap(err, "failed to seed defaults")
}
