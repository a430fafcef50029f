// Package progress tracks topic mastery, the daily practice streak, XP and
// one-shot achievements. Every operation takes the current state and returns
// the updated state; nothing here touches storage.
package progress

import "gmatprep/internal/models"

// XP awarded for plain practice events
const (
	XPLogQuestion     = 10
	XPCorrectRetry    = 25
	XPSessionComplete = 50
)

// XP rewards attached to achievements
const (
	XPTopicSlayer   = 200
	XPStreak7       = 100
	XPStreak30      = 500
	XPSpeedDemon    = 75
	XPPerfectionist = 150
	XPCentury       = 300
)

const (
	// CenturyQuestionCount is the logged-question total that unlocks century
	CenturyQuestionCount = 100
	// PerfectionistRun is the in-session correct run that unlocks perfectionist
	PerfectionistRun = 10
	// SpeedDemonRatio is the share of the time limit a session must beat
	SpeedDemonRatio = 0.8
)

var catalog = []models.Achievement{
	{
		Code:        models.AchievementTopicSlayer,
		Name:        "Topic Slayer",
		Description: "Reach Proficient in any topic",
		XPReward:    XPTopicSlayer,
	},
	{
		Code:        models.AchievementStreak7,
		Name:        "Week Warrior",
		Description: "Practice 7 days in a row",
		XPReward:    XPStreak7,
	},
	{
		Code:        models.AchievementStreak30,
		Name:        "Monthly Master",
		Description: "Practice 30 days in a row",
		XPReward:    XPStreak30,
	},
	{
		Code:        models.AchievementSpeedDemon,
		Name:        "Speed Demon",
		Description: "Finish a session in under 80% of the time limit",
		XPReward:    XPSpeedDemon,
	},
	{
		Code:        models.AchievementPerfectionist,
		Name:        "Perfectionist",
		Description: "Answer 10 questions in a row correctly in one session",
		XPReward:    XPPerfectionist,
	},
	{
		Code:        models.AchievementCentury,
		Name:        "Century",
		Description: "Log 100 questions",
		XPReward:    XPCentury,
	},
}

// Catalog returns a fresh, fully locked copy of every achievement
func Catalog() []models.Achievement {
	out := make([]models.Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// Definition looks up the catalog entry for code
func Definition(code models.AchievementCode) (models.Achievement, bool) {
	for _, a := range catalog {
		if a.Code == code {
			return a, true
		}
	}
	return models.Achievement{}, false
}
