package challenge

import (
	"time"

	"tribeTrackerSync/utils"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type Challenge struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	CreatorID        string     `json:"creator_id"`
	CreatorName      string     `json:"creator_name"`
	DurationDays     int        `json:"duration_days"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Habits           []string   `json:"habits"`
	IsPublic         bool       `json:"is_public"`
	InviteCode       *string    `json:"invite_code,omitempty"`
	ParticipantCount int        `json:"participant_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// EffectiveEndDate is the stored end date, or start + duration - 1 day
// when no end date was set.
func (c *Challenge) EffectiveEndDate() time.Time {
	if c.EndDate != nil {
		return utils.Day(*c.EndDate)
	}
	return utils.AddDays(c.StartDate, c.DurationDays-1)
}

// Status derives the lifecycle tag from the challenge dates. It is never
// stored as authoritative state.
func (c *Challenge) Status(today time.Time) Status {
	return StatusForDates(c.StartDate, c.EffectiveEndDate(), today)
}

func StatusForDates(start, end, today time.Time) Status {
	d := utils.Day(today)
	if d.Before(utils.Day(start)) {
		return StatusUpcoming
	}
	if d.After(utils.Day(end)) {
		return StatusCompleted
	}
	return StatusActive
}

type CreateChallengeRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	DurationDays int      `json:"duration_days"`
	StartDate    string   `json:"start_date"`
	Habits       []string `json:"habits"`
	IsPublic     bool     `json:"is_public"`
}

type UpdateChallengeRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Habits       []string `json:"habits,omitempty"`
	IsPublic     *bool    `json:"is_public,omitempty"`
	DurationDays *int     `json:"duration_days,omitempty"`
}
