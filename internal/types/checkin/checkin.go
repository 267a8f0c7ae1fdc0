package checkin

import (
	"time"

	"tribeTrackerSync/utils"
)

type HabitCheckin struct {
	ID                 string     `json:"id"`
	ChallengeID        string     `json:"challenge_id"`
	UserID             string     `json:"user_id"`
	UserName           string     `json:"user_name,omitempty"`
	CheckinDate        time.Time  `json:"checkin_date"`
	HabitsCompleted    []bool     `json:"habits_completed"`
	PointsEarned       int        `json:"points_earned"`
	AllHabitsCompleted bool       `json:"all_habits_completed"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// Recompute refreshes the derived fields from HabitsCompleted: one point
// per completed habit, all-completed is the AND of every entry.
func (c *HabitCheckin) Recompute() {
	points := 0
	all := len(c.HabitsCompleted) > 0
	for _, done := range c.HabitsCompleted {
		if done {
			points++
		} else {
			all = false
		}
	}
	c.PointsEarned = points
	c.AllHabitsCompleted = all
}

// SameTriple reports whether two checkins target the same
// (challenge, user, calendar date) slot.
func (c *HabitCheckin) SameTriple(other *HabitCheckin) bool {
	return c.ChallengeID == other.ChallengeID &&
		c.UserID == other.UserID &&
		utils.SameDay(c.CheckinDate, other.CheckinDate)
}
