package progress

import "gmatprep/internal/models"

// Grant is a single XP award and what earned it
type Grant struct {
	Reason string
	XP     int
}

// Outcome reports the side effects of a tracker operation
type Outcome struct {
	XPGranted int
	Grants    []Grant
	Unlocked  []models.Achievement
}

func (o *Outcome) grant(reason string, xp int) {
	if xp <= 0 {
		return
	}
	o.XPGranted += xp
	o.Grants = append(o.Grants, Grant{Reason: reason, XP: xp})
}

func (o *Outcome) unlock(a models.Achievement) {
	o.Unlocked = append(o.Unlocked, a)
	o.grant(string(a.Code), a.XPReward)
}

// Merge folds other into o
func (o *Outcome) Merge(other Outcome) {
	o.XPGranted += other.XPGranted
	o.Grants = append(o.Grants, other.Grants...)
	o.Unlocked = append(o.Unlocked, other.Unlocked...)
}

// ApplyTo adds the granted XP to stats. Only needed for outcomes that did
// not already receive the stats, such as RecordAttempt.
func (o Outcome) ApplyTo(stats models.UserStats) models.UserStats {
	stats.TotalXP += o.XPGranted
	return stats
}

// Empty reports whether nothing was granted or unlocked
func (o Outcome) Empty() bool {
	return o.XPGranted == 0 && len(o.Unlocked) == 0
}
