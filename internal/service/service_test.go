package service

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gmatprep/internal/database"
	"gmatprep/internal/logger"
	"gmatprep/internal/models"
	"gmatprep/internal/progress"
	"gmatprep/migrations"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	db        *database.DB
	clock     *testClock
	questions *QuestionService
	practice  *PracticeService
	backup    *BackupService
}

var startOfTest = time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.RunMigrations(migrations.FS)
	require.NoError(t, err)
	_, err = SeedDefaults(db)
	require.NoError(t, err)

	clock := &testClock{now: startOfTest}
	tracker := progress.NewTracker(clock.Now)
	log := logger.NewNop()

	return &testEnv{
		db:        db,
		clock:     clock,
		questions: NewQuestionService(db, tracker, log),
		practice:  NewPracticeService(db, tracker, log, 45*time.Minute),
		backup:    NewBackupService(db, log),
	}
}

func algebraQuestion(n int) NewQuestion {
	return NewQuestion{
		Section:       models.SectionQuant,
		Topic:         "Algebra",
		Text:          fmt.Sprintf("If x + %d = %d, what is x?", n, n+3),
		Options:       []string{"1", "2", "3", "4", "5"},
		CorrectAnswer: "C",
		Explanation:   "Subtract from both sides.",
	}
}
