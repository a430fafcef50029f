package models

import "time"

// MasteryLevel is the derived tier of a topic, ordered from Novice to Master
type MasteryLevel int

const (
	MasteryNovice MasteryLevel = iota
	MasteryApprentice
	MasteryCompetent
	MasteryProficient
	MasteryExpert
	MasteryMaster
)

var masteryNames = [...]string{"Novice", "Apprentice", "Competent", "Proficient", "Expert", "Master"}

func (l MasteryLevel) String() string {
	if l < MasteryNovice || l > MasteryMaster {
		return "Unknown"
	}
	return masteryNames[l]
}

// ParseMasteryLevel converts a stored tier name back to its level
func ParseMasteryLevel(name string) (MasteryLevel, bool) {
	for i, n := range masteryNames {
		if n == name {
			return MasteryLevel(i), true
		}
	}
	return MasteryNovice, false
}

// TopicMastery holds the practice counters for one (section, topic) pair
type TopicMastery struct {
	Section          Section
	Topic            string
	QuestionsSeen    int
	QuestionsCorrect int
	MasteryLevel     MasteryLevel
	LastPracticed    *time.Time
}

// Accuracy returns the correct ratio, 0 when nothing has been seen
func (m TopicMastery) Accuracy() float64 {
	if m.QuestionsSeen == 0 {
		return 0
	}
	return float64(m.QuestionsCorrect) / float64(m.QuestionsSeen)
}

// UserStats is the learner-wide XP and streak record
type UserStats struct {
	TotalXP          int
	CurrentStreak    int
	LongestStreak    int
	LastPracticeDate *time.Time
}

// AchievementCode identifies a badge in the fixed catalog
type AchievementCode string

const (
	AchievementTopicSlayer   AchievementCode = "topic_slayer"
	AchievementStreak7       AchievementCode = "streak_7"
	AchievementStreak30      AchievementCode = "streak_30"
	AchievementSpeedDemon    AchievementCode = "speed_demon"
	AchievementPerfectionist AchievementCode = "perfectionist"
	AchievementCentury       AchievementCode = "century"
)

// Achievement is a badge. UnlockedAt is nil while locked and set exactly once.
type Achievement struct {
	Code        AchievementCode
	Name        string
	Description string
	XPReward    int
	UnlockedAt  *time.Time
}

// IsUnlocked reports whether the badge has been earned
func (a Achievement) IsUnlocked() bool {
	return a.UnlockedAt != nil
}
