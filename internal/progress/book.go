package progress

import (
	"time"

	"gmatprep/internal/models"
)

// Book holds the lock state of every achievement in the catalog.
// Unlock is the only way an entry changes, and it only moves locked to unlocked.
type Book struct {
	entries map[models.AchievementCode]models.Achievement
}

// NewBook builds a book from stored achievements. Catalog codes missing from
// stored start out locked, and codes outside the catalog are ignored.
func NewBook(stored []models.Achievement) *Book {
	b := &Book{entries: make(map[models.AchievementCode]models.Achievement, len(catalog))}
	for _, def := range catalog {
		b.entries[def.Code] = def
	}
	for _, a := range stored {
		def, ok := b.entries[a.Code]
		if !ok {
			continue
		}
		if a.UnlockedAt != nil {
			at := *a.UnlockedAt
			def.UnlockedAt = &at
		}
		b.entries[a.Code] = def
	}
	return b
}

// Get returns the achievement for code
func (b *Book) Get(code models.AchievementCode) (models.Achievement, bool) {
	a, ok := b.entries[code]
	return a, ok
}

// IsUnlocked reports whether code has already been earned
func (b *Book) IsUnlocked(code models.AchievementCode) bool {
	a, ok := b.entries[code]
	return ok && a.IsUnlocked()
}

// Unlock transitions code from locked to unlocked at the given time.
// It returns false and leaves the book untouched when the achievement is
// unknown or already unlocked.
func (b *Book) Unlock(code models.AchievementCode, at time.Time) (models.Achievement, bool) {
	a, ok := b.entries[code]
	if !ok || a.IsUnlocked() {
		return a, false
	}
	a.UnlockedAt = &at
	b.entries[code] = a
	return a, true
}

// All returns every achievement in catalog order
func (b *Book) All() []models.Achievement {
	out := make([]models.Achievement, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, b.entries[def.Code])
	}
	return out
}

// UnlockedCount returns how many achievements have been earned
func (b *Book) UnlockedCount() int {
	n := 0
	for _, a := range b.entries {
		if a.IsUnlocked() {
			n++
		}
	}
	return n
}
