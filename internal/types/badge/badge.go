package badge

import "time"

type CriteriaType string

const (
	CriteriaStreak      CriteriaType = "streak"
	CriteriaTotalPoints CriteriaType = "total_points"
	CriteriaTotalDays   CriteriaType = "total_days"
	CriteriaPerfectDay  CriteriaType = "perfect_day"
)

type BadgeDefinition struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Icon          string       `json:"icon"`
	CriteriaType  CriteriaType `json:"criteria_type"`
	CriteriaValue int          `json:"criteria_value"`
}

type EarnedBadge struct {
	BadgeID  string    `json:"badge_id"`
	UserID   string    `json:"user_id"`
	EarnedAt time.Time `json:"earned_at"`
}
