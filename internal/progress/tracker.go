package progress

import (
	"time"

	"gmatprep/internal/models"
)

// Tracker applies practice events to progress state
type Tracker struct {
	now func() time.Time
}

// NewTracker returns a tracker reading the time from now, or time.Now when nil
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now}
}

// Now returns the tracker's current time
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Tier maps practice counters onto a mastery level. Rows are checked in order
// and the first match wins, so fewer than five attempts is always Novice.
func Tier(seen, correct int) models.MasteryLevel {
	if seen < 5 {
		return models.MasteryNovice
	}
	accuracy := float64(correct) / float64(seen)

	switch {
	case accuracy < 0.4 || seen < 10:
		return models.MasteryApprentice
	case accuracy < 0.6 || seen < 20:
		return models.MasteryCompetent
	case accuracy < 0.75 || seen < 30:
		return models.MasteryProficient
	case accuracy < 0.9 || seen < 50:
		return models.MasteryExpert
	default:
		return models.MasteryMaster
	}
}

// RecordAttempt counts one answered question against its topic and unlocks
// topic_slayer once any topic reaches Proficient. The returned outcome's XP
// has not been added to any stats; use Outcome.ApplyTo.
func (t *Tracker) RecordAttempt(m models.TopicMastery, correct bool, book *Book) (models.TopicMastery, Outcome) {
	var out Outcome
	now := t.now()

	m.QuestionsSeen++
	if correct {
		m.QuestionsCorrect++
	}
	today := models.CalendarDay(now)
	m.LastPracticed = &today
	m.MasteryLevel = Tier(m.QuestionsSeen, m.QuestionsCorrect)

	if m.MasteryLevel >= models.MasteryProficient {
		t.unlock(&out, book, models.AchievementTopicSlayer, now)
	}
	return m, out
}

// RecordSessionStart advances the daily streak. A second session on the same
// day changes nothing, a session the day after the last one extends the
// streak and anything else restarts it at one.
func (t *Tracker) RecordSessionStart(stats models.UserStats, book *Book) (models.UserStats, Outcome) {
	var out Outcome
	now := t.now()

	if stats.LastPracticeDate != nil && models.SameDay(*stats.LastPracticeDate, now) {
		return stats, out
	}

	if stats.LastPracticeDate != nil && models.IsDayBefore(*stats.LastPracticeDate, now) {
		stats.CurrentStreak++
	} else {
		stats.CurrentStreak = 1
	}
	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	today := models.CalendarDay(now)
	stats.LastPracticeDate = &today

	if stats.CurrentStreak == 7 {
		t.unlock(&out, book, models.AchievementStreak7, now)
	}
	if stats.CurrentStreak == 30 {
		t.unlock(&out, book, models.AchievementStreak30, now)
	}

	return out.ApplyTo(stats), out
}

// LogQuestion grants XP for a newly logged question. totalLogged is the
// question count including the new one.
func (t *Tracker) LogQuestion(stats models.UserStats, totalLogged int, book *Book) (models.UserStats, Outcome) {
	var out Outcome
	out.grant("log_question", XPLogQuestion)

	if totalLogged == CenturyQuestionCount {
		t.unlock(&out, book, models.AchievementCentury, t.now())
	}
	return out.ApplyTo(stats), out
}

// CorrectRetry grants XP for answering a logged question correctly
func (t *Tracker) CorrectRetry(stats models.UserStats) (models.UserStats, Outcome) {
	var out Outcome
	out.grant("correct_retry", XPCorrectRetry)
	return out.ApplyTo(stats), out
}

// SessionSummary describes a finished practice session
type SessionSummary struct {
	Elapsed   time.Duration
	TimeLimit time.Duration
	Answered  int
	BestRun   int
}

// CompleteSession grants completion XP and checks the speed_demon and
// perfectionist achievements. Speed only counts when something was answered.
func (t *Tracker) CompleteSession(stats models.UserStats, summary SessionSummary, book *Book) (models.UserStats, Outcome) {
	var out Outcome
	now := t.now()
	out.grant("session_complete", XPSessionComplete)

	if summary.Answered > 0 && summary.TimeLimit > 0 &&
		float64(summary.Elapsed) < SpeedDemonRatio*float64(summary.TimeLimit) {
		t.unlock(&out, book, models.AchievementSpeedDemon, now)
	}
	if summary.BestRun >= PerfectionistRun {
		t.unlock(&out, book, models.AchievementPerfectionist, now)
	}
	return out.ApplyTo(stats), out
}

func (t *Tracker) unlock(out *Outcome, book *Book, code models.AchievementCode, at time.Time) {
	if book == nil {
		return
	}
	if a, ok := book.Unlock(code, at); ok {
		out.unlock(a)
	}
}

// LongestCorrectRun returns the longest run of consecutive true values
func LongestCorrectRun(results []bool) int {
	best, run := 0, 0
	for _, ok := range results {
		if !ok {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}
