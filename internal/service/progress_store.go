package service

import (
	"github.com/pkg/errors"

	"gmatprep/internal/progress"
	"gmatprep/internal/repository"
)

func loadBook(store *repository.Store) (*progress.Book, error) {
	stored, err := store.Achievements.List()
	if err != nil {
		return nil, err
	}
	return progress.NewBook(stored), nil
}

// saveUnlocks persists the unlocks in out. The book was read inside the same
// transaction, so a row that is already unlocked means the two disagree.
func saveUnlocks(store *repository.Store, out progress.Outcome) error {
	for _, a := range out.Unlocked {
		ok, err := store.Achievements.MarkUnlocked(a.Code, *a.UnlockedAt)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Errorf("achievement %s was already unlocked", a.Code)
		}
	}
	return nil
}
