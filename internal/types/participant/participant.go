package participant

import "time"

type ChallengeParticipant struct {
	ID               string     `json:"id"`
	ChallengeID      string     `json:"challenge_id"`
	ChallengeName    string     `json:"challenge_name"`
	UserID           string     `json:"user_id"`
	DisplayName      string     `json:"display_name"`
	Email            *string    `json:"email,omitempty"`
	PhotoURL         *string    `json:"photo_url,omitempty"`
	TotalPoints      int        `json:"total_points"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	DaysParticipated int        `json:"days_participated"`
	JoinedAt         time.Time  `json:"joined_at"`
	LastCheckinDate  *time.Time `json:"last_checkin_date,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ForPublicView strips privacy-sensitive fields before the record is shown
// to anyone other than the participant themselves.
func (p ChallengeParticipant) ForPublicView() ChallengeParticipant {
	p.Email = nil
	return p
}

// StatsPayload carries recomputed derived statistics for one participant.
type StatsPayload struct {
	ParticipantID    string     `json:"participant_id"`
	TotalPoints      int        `json:"total_points"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	DaysParticipated int        `json:"days_participated"`
	LastCheckinDate  *time.Time `json:"last_checkin_date,omitempty"`
}
