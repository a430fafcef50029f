package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmatprep/internal/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ptr(t time.Time) *time.Time { return &t }

var now = time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)

func TestTier(t *testing.T) {
	tests := []struct {
		name    string
		seen    int
		correct int
		want    models.MasteryLevel
	}{
		{"nothing seen", 0, 0, models.MasteryNovice},
		{"perfect but few", 3, 3, models.MasteryNovice},
		{"four seen", 4, 4, models.MasteryNovice},
		{"five perfect", 5, 5, models.MasteryApprentice},
		{"low accuracy", 40, 10, models.MasteryApprentice},
		{"accuracy exactly 0.4", 10, 4, models.MasteryCompetent},
		{"ten at 0.6", 10, 6, models.MasteryCompetent},
		{"twenty at 0.6", 20, 12, models.MasteryProficient},
		{"twenty at 0.8", 20, 16, models.MasteryProficient},
		{"thirty at 0.8", 30, 24, models.MasteryExpert},
		{"thirty perfect", 30, 30, models.MasteryExpert},
		{"fifty at 0.9", 50, 45, models.MasteryMaster},
		{"fifty at 0.88", 50, 44, models.MasteryExpert},
		{"hundred at 0.7", 100, 70, models.MasteryProficient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tier(tt.seen, tt.correct))
		})
	}
}

func TestTierMonotoneInSeen(t *testing.T) {
	for _, accuracy := range []float64{0.4, 0.6, 0.75, 0.9, 1.0} {
		prev := models.MasteryNovice
		for seen := 1; seen <= 200; seen++ {
			correct := int(accuracy*float64(seen) + 0.999999)
			if correct > seen {
				correct = seen
			}
			level := Tier(seen, correct)
			require.GreaterOrEqual(t, level, prev, "accuracy %v seen %d", accuracy, seen)
			prev = level
		}
	}
}

func TestRecordAttemptScenario(t *testing.T) {
	tracker := NewTracker(fixedClock(now))
	book := NewBook(nil)

	m := models.TopicMastery{
		Section:          models.SectionQuant,
		Topic:            "Algebra",
		QuestionsSeen:    19,
		QuestionsCorrect: 15,
		MasteryLevel:     models.MasteryCompetent,
	}

	updated, out := tracker.RecordAttempt(m, true, book)

	assert.Equal(t, 20, updated.QuestionsSeen)
	assert.Equal(t, 16, updated.QuestionsCorrect)
	assert.InDelta(t, 0.8, updated.Accuracy(), 1e-9)
	assert.Equal(t, models.MasteryProficient, updated.MasteryLevel)
	require.NotNil(t, updated.LastPracticed)
	assert.Equal(t, "2024-06-15", updated.LastPracticed.Format(models.DateLayout))

	require.Len(t, out.Unlocked, 1)
	assert.Equal(t, models.AchievementTopicSlayer, out.Unlocked[0].Code)
	assert.Equal(t, XPTopicSlayer, out.XPGranted)
	assert.True(t, book.IsUnlocked(models.AchievementTopicSlayer))

	// the original value is untouched
	assert.Equal(t, 19, m.QuestionsSeen)
}

func TestRecordAttemptWrongAnswer(t *testing.T) {
	tracker := NewTracker(fixedClock(now))
	book := NewBook(nil)

	updated, out := tracker.RecordAttempt(models.TopicMastery{QuestionsSeen: 2, QuestionsCorrect: 2}, false, book)

	assert.Equal(t, 3, updated.QuestionsSeen)
	assert.Equal(t, 2, updated.QuestionsCorrect)
	assert.Equal(t, models.MasteryNovice, updated.MasteryLevel)
	assert.True(t, out.Empty())
}

func TestTopicSlayerUnlocksOnce(t *testing.T) {
	tracker := NewTracker(fixedClock(now))
	book := NewBook(nil)
	m := models.TopicMastery{QuestionsSeen: 29, QuestionsCorrect: 29}

	m, first := tracker.RecordAttempt(m, true, book)
	_, second := tracker.RecordAttempt(m, true, book)

	assert.Equal(t, XPTopicSlayer, first.XPGranted)
	assert.True(t, second.Empty())

	a, _ := book.Get(models.AchievementTopicSlayer)
	assert.True(t, a.UnlockedAt.Equal(now))
}

func TestRecordSessionStart(t *testing.T) {
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -7)

	tests := []struct {
		name        string
		stats       models.UserStats
		wantCurrent int
		wantLongest int
	}{
		{"first ever", models.UserStats{}, 1, 1},
		{"same day", models.UserStats{CurrentStreak: 4, LongestStreak: 9, LastPracticeDate: ptr(now.Add(-6 * time.Hour))}, 4, 9},
		{"yesterday", models.UserStats{CurrentStreak: 4, LongestStreak: 4, LastPracticeDate: ptr(yesterday)}, 5, 5},
		{"gap resets", models.UserStats{CurrentStreak: 12, LongestStreak: 12, LastPracticeDate: ptr(lastWeek)}, 1, 12},
		{"yesterday below longest", models.UserStats{CurrentStreak: 2, LongestStreak: 20, LastPracticeDate: ptr(yesterday)}, 3, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(fixedClock(now))
			got, _ := tracker.RecordSessionStart(tt.stats, NewBook(nil))

			assert.Equal(t, tt.wantCurrent, got.CurrentStreak)
			assert.Equal(t, tt.wantLongest, got.LongestStreak)
			require.NotNil(t, got.LastPracticeDate)
			assert.True(t, models.SameDay(*got.LastPracticeDate, now))
		})
	}
}

func TestRecordSessionStartTwiceSameDay(t *testing.T) {
	tracker := NewTracker(fixedClock(now))
	book := NewBook(nil)
	stats := models.UserStats{CurrentStreak: 6, LongestStreak: 6, LastPracticeDate: ptr(now.AddDate(0, 0, -1))}

	stats, out := tracker.RecordSessionStart(stats, book)
	assert.Equal(t, 7, stats.CurrentStreak)
	assert.Equal(t, XPStreak7, out.XPGranted)
	assert.Equal(t, XPStreak7, stats.TotalXP)

	again, out := tracker.RecordSessionStart(stats, book)
	assert.Equal(t, stats, again)
	assert.True(t, out.Empty())
}

func TestStreakAchievementsAcrossDays(t *testing.T) {
	book := NewBook(nil)
	var stats models.UserStats
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	unlockedOn := map[models.AchievementCode]int{}
	for day := 0; day < 31; day++ {
		tracker := NewTracker(fixedClock(start.AddDate(0, 0, day)))
		var out Outcome
		stats, out = tracker.RecordSessionStart(stats, book)
		for _, a := range out.Unlocked {
			unlockedOn[a.Code] = stats.CurrentStreak
		}
	}

	assert.Equal(t, 31, stats.CurrentStreak)
	assert.Equal(t, 31, stats.LongestStreak)
	assert.Equal(t, map[models.AchievementCode]int{
		models.AchievementStreak7:  7,
		models.AchievementStreak30: 30,
	}, unlockedOn)
	assert.Equal(t, XPStreak7+XPStreak30, stats.TotalXP)
}

func TestStreakSevenAfterResetDoesNotRegrant(t *testing.T) {
	book := NewBook(nil)
	book.Unlock(models.AchievementStreak7, now.AddDate(0, -1, 0))
	tracker := NewTracker(fixedClock(now))

	stats := models.UserStats{TotalXP: 1000, CurrentStreak: 6, LongestStreak: 15, LastPracticeDate: ptr(now.AddDate(0, 0, -1))}
	stats, out := tracker.RecordSessionStart(stats, book)

	assert.Equal(t, 7, stats.CurrentStreak)
	assert.Equal(t, 15, stats.LongestStreak)
	assert.True(t, out.Empty())
	assert.Equal(t, 1000, stats.TotalXP)
}

func TestLogQuestion(t *testing.T) {
	tracker := NewTracker(fixedClock(now))
	book := NewBook(nil)

	stats, out := tracker.LogQuestion(models.UserStats{TotalXP: 5}, 99, book)
	assert.Equal(t, 15, stats.TotalXP)
	assert.Empty(t, out.Unlocked)

	stats, out = tracker.LogQuestion(stats, 100, book)
	assert.Equal(t, 15+XPLogQuestion+XPCentury, stats.TotalXP)
	require.Len(t, out.Unlocked, 1)
	assert.Equal(t, models.AchievementCentury, out.Unlocked[0].Code)

	stats, out = tracker.LogQuestion(stats, 101, book)
	assert.Equal(t, XPLogQuestion, out.XPGranted)
	assert.Empty(t, out.Unlocked)
}

func TestCorrectRetry(t *testing.T) {
	tracker := NewTracker(fixedClock(now))
	stats, out := tracker.CorrectRetry(models.UserStats{TotalXP: 100})
	assert.Equal(t, 125, stats.TotalXP)
	assert.Equal(t, []Grant{{Reason: "correct_retry", XP: XPCorrectRetry}}, out.Grants)
}

func TestCompleteSession(t *testing.T) {
	tests := []struct {
		name      string
		summary   SessionSummary
		wantXP    int
		wantCodes []models.AchievementCode
	}{
		{
			name:    "slow session",
			summary: SessionSummary{Elapsed: 40 * time.Minute, TimeLimit: 45 * time.Minute, Answered: 5, BestRun: 3},
			wantXP:  XPSessionComplete,
		},
		{
			name:      "fast session",
			summary:   SessionSummary{Elapsed: 20 * time.Minute, TimeLimit: 45 * time.Minute, Answered: 5, BestRun: 3},
			wantXP:    XPSessionComplete + XPSpeedDemon,
			wantCodes: []models.AchievementCode{models.AchievementSpeedDemon},
		},
		{
			name:    "exactly eighty percent",
			summary: SessionSummary{Elapsed: 8 * time.Minute, TimeLimit: 10 * time.Minute, Answered: 5},
			wantXP:  XPSessionComplete,
		},
		{
			name:    "fast but empty",
			summary: SessionSummary{Elapsed: time.Minute, TimeLimit: 45 * time.Minute},
			wantXP:  XPSessionComplete,
		},
		{
			name:      "perfect run",
			summary:   SessionSummary{Elapsed: 44 * time.Minute, TimeLimit: 45 * time.Minute, Answered: 12, BestRun: 10},
			wantXP:    XPSessionComplete + XPPerfectionist,
			wantCodes: []models.AchievementCode{models.AchievementPerfectionist},
		},
		{
			name:      "both",
			summary:   SessionSummary{Elapsed: 5 * time.Minute, TimeLimit: 45 * time.Minute, Answered: 12, BestRun: 12},
			wantXP:    XPSessionComplete + XPSpeedDemon + XPPerfectionist,
			wantCodes: []models.AchievementCode{models.AchievementSpeedDemon, models.AchievementPerfectionist},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(fixedClock(now))
			stats, out := tracker.CompleteSession(models.UserStats{}, tt.summary, NewBook(nil))

			assert.Equal(t, tt.wantXP, stats.TotalXP)
			assert.Equal(t, tt.wantXP, out.XPGranted)

			var codes []models.AchievementCode
			for _, a := range out.Unlocked {
				codes = append(codes, a.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}

func TestCompleteSessionAchievementsOnlyOnce(t *testing.T) {
	tracker := NewTracker(fixedClock(now))
	book := NewBook(nil)
	summary := SessionSummary{Elapsed: time.Minute, TimeLimit: time.Hour, Answered: 10, BestRun: 10}

	stats, _ := tracker.CompleteSession(models.UserStats{}, summary, book)
	stats, out := tracker.CompleteSession(stats, summary, book)

	assert.Equal(t, XPSessionComplete, out.XPGranted)
	assert.Equal(t, 2*XPSessionComplete+XPSpeedDemon+XPPerfectionist, stats.TotalXP)
}

func TestLongestCorrectRun(t *testing.T) {
	assert.Equal(t, 0, LongestCorrectRun(nil))
	assert.Equal(t, 0, LongestCorrectRun([]bool{false, false}))
	assert.Equal(t, 3, LongestCorrectRun([]bool{true, true, false, true, true, true, false, true}))
	assert.Equal(t, 2, LongestCorrectRun([]bool{false, true, true}))
}

func TestNilBookSkipsUnlocks(t *testing.T) {
	tracker := NewTracker(fixedClock(now))
	stats, out := tracker.LogQuestion(models.UserStats{}, CenturyQuestionCount, nil)
	assert.Equal(t, XPLogQuestion, stats.TotalXP)
	assert.Empty(t, out.Unlocked)
}
