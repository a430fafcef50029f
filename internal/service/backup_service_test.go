package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmatprep/internal/models"
	"gmatprep/internal/progress"
	"gmatprep/internal/repository"
	"gmatprep/internal/validation"
)

func buildHistory(t *testing.T, env *testEnv) {
	t.Helper()
	q1 := logOne(t, env, 1)
	q2 := logOne(t, env, 2)
	session := startSession(t, env)

	for i := 0; i < 10; i++ {
		_, err := env.practice.SubmitAnswer(SubmitAnswerInput{SessionID: session.ID, QuestionID: q1.ID, SelectedAnswer: "C", Confidence: models.ConfidenceConfident})
		require.NoError(t, err)
	}
	_, err := env.practice.SubmitAnswer(SubmitAnswerInput{SessionID: session.ID, QuestionID: q2.ID, SelectedAnswer: "B", Confidence: models.ConfidenceUnsure})
	require.NoError(t, err)

	env.clock.Advance(5 * time.Minute)
	_, err = env.practice.CompleteSession(session.ID)
	require.NoError(t, err)
}

func TestBackupRoundTrip(t *testing.T) {
	src := newTestEnv(t)
	buildHistory(t, src)

	var buf bytes.Buffer
	require.NoError(t, src.backup.Export(&buf))

	var data BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, BackupVersion, data.Version)
	assert.Equal(t, "sqlite3", data.DatabaseType)
	assert.Len(t, data.Questions, 2)
	assert.Len(t, data.Sessions, 1)
	assert.Len(t, data.Attempts, 11)

	dst := newTestEnv(t)

	summary, err := dst.backup.Import(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Questions)
	assert.Equal(t, 1, summary.Sessions)
	assert.Equal(t, 11, summary.Attempts)
	assert.Equal(t, 2, summary.Achievements)

	want, err := src.practice.Dashboard()
	require.NoError(t, err)
	got, err := dst.practice.Dashboard()
	require.NoError(t, err)

	assert.Equal(t, want.Stats, got.Stats)
	assert.Equal(t, want.Mastery, got.Mastery)
	assert.Equal(t, want.TotalQuestions, got.TotalQuestions)
	assert.Equal(t, want.DueToday, got.DueToday)
	for i := range want.Achievements {
		assert.Equal(t, want.Achievements[i].Code, got.Achievements[i].Code)
		assert.Equal(t, want.Achievements[i].IsUnlocked(), got.Achievements[i].IsUnlocked())
	}

	// attempts follow their question to its new id
	store := repository.NewStore(dst.db)
	questions, err := store.Questions.ListAll()
	require.NoError(t, err)
	byID := map[int64]models.Question{}
	for _, q := range questions {
		byID[q.ID] = q
	}
	attempts, err := store.Attempts.ListBySession(data.Sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, attempts, 11)
	for _, a := range attempts {
		q, ok := byID[a.QuestionID]
		require.True(t, ok)
		assert.Equal(t, a.IsCorrect, a.SelectedAnswer == q.CorrectAnswer)
	}
}

func TestBackupImportRefusesNonEmptyDatabase(t *testing.T) {
	env := newTestEnv(t)
	buildHistory(t, env)

	var buf bytes.Buffer
	require.NoError(t, env.backup.Export(&buf))

	_, err := env.backup.Import(&buf)
	assert.ErrorIs(t, err, ErrDatabaseNotEmpty)
}

func TestBackupImportRejectsDanglingAttempt(t *testing.T) {
	env := newTestEnv(t)

	doc := `{
		"version": "1.0",
		"sessions": [{"id": "s1", "time_limit_seconds": 60, "started_at": "2024-04-20T09:00:00Z"}],
		"attempts": [{"session_id": "s1", "question_id": 7, "selected_answer": "A", "confidence": 1, "attempted_at": "2024-04-20T09:01:00Z"}]
	}`

	_, err := env.backup.Import(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown question 7")

	sessions, err := repository.NewStore(env.db).Sessions.ListSessions(0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func restorableBackup() BackupData {
	return BackupData{
		Version: BackupVersion,
		Questions: []QuestionBackup{{
			ID:              1,
			Section:         string(models.SectionQuant),
			Topic:           "Arithmetic",
			Text:            "What is 2+2?",
			Options:         []string{"3", "4", "5"},
			CorrectAnswer:   "B",
			IntervalDays:    6,
			EaseFactor:      2.5,
			RepetitionCount: 2,
			NextReviewDate:  "2024-04-26",
		}},
		Mastery: []MasteryBackup{{
			Section:          string(models.SectionQuant),
			Topic:            "Arithmetic",
			QuestionsSeen:    2,
			QuestionsCorrect: 1,
			MasteryLevel:     "Novice",
		}},
		Stats: StatsBackup{TotalXP: 120, CurrentStreak: 2, LongestStreak: 4},
	}
}

func TestBackupImportRejectsInvalidState(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BackupData)
		wantErr string
	}{
		{"ease below floor", func(b *BackupData) { b.Questions[0].EaseFactor = 0.5 }, "ease_factor"},
		{"zero interval", func(b *BackupData) { b.Questions[0].IntervalDays = 0 }, "interval_days"},
		{"negative repetitions", func(b *BackupData) { b.Questions[0].RepetitionCount = -3 }, "repetition_count"},
		{"answer outside options", func(b *BackupData) { b.Questions[0].CorrectAnswer = "Z" }, "correct_answer"},
		{"unknown topic", func(b *BackupData) { b.Questions[0].Topic = "Astrology" }, "topic"},
		{"more correct than seen", func(b *BackupData) { b.Mastery[0].QuestionsCorrect = 9 }, "questions_correct"},
		{"negative xp", func(b *BackupData) { b.Stats.TotalXP = -500 }, "total_xp"},
		{"longest below current", func(b *BackupData) { b.Stats.CurrentStreak, b.Stats.LongestStreak = 9, 2 }, "longest_streak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			backup := restorableBackup()
			tt.mutate(&backup)
			raw, err := json.Marshal(backup)
			require.NoError(t, err)

			_, err = env.backup.Import(bytes.NewReader(raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var ve validation.ValidationError
			assert.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)

			// nothing from the rejected backup is kept
			store := repository.NewStore(env.db)
			count, err := store.Questions.Count()
			require.NoError(t, err)
			assert.Zero(t, count)
			stats, err := store.Stats.Get()
			require.NoError(t, err)
			assert.Zero(t, stats.TotalXP)
		})
	}
}

func TestBackupImportDerivesMasteryTier(t *testing.T) {
	env := newTestEnv(t)
	backup := restorableBackup()
	backup.Mastery[0].MasteryLevel = "Master"
	raw, err := json.Marshal(backup)
	require.NoError(t, err)

	_, err = env.backup.Import(bytes.NewReader(raw))
	require.NoError(t, err)

	m, err := repository.NewStore(env.db).Mastery.Get(models.SectionQuant, "Arithmetic")
	require.NoError(t, err)
	assert.Equal(t, 2, m.QuestionsSeen)
	assert.Equal(t, models.MasteryNovice, m.MasteryLevel)
}

func TestBackupFiles(t *testing.T) {
	env := newTestEnv(t)
	buildHistory(t, env)

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, env.backup.ExportFile(path))

	dst := newTestEnv(t)
	summary, err := dst.backup.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Questions)

	_, err = dst.backup.ImportFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestBackupClear(t *testing.T) {
	env := newTestEnv(t)
	buildHistory(t, env)

	var buf bytes.Buffer
	require.NoError(t, env.backup.Export(&buf))

	require.NoError(t, env.backup.Clear())

	dash, err := env.practice.Dashboard()
	require.NoError(t, err)
	assert.Zero(t, dash.TotalQuestions)
	assert.Zero(t, dash.Stats.TotalXP)
	assert.Len(t, dash.Achievements, len(progress.Catalog()))
	for _, m := range dash.Mastery {
		assert.Zero(t, m.QuestionsSeen)
	}

	// a cleared database accepts the restore
	_, err = env.backup.Import(&buf)
	require.NoError(t, err)
}
