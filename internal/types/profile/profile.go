package profile

import "time"

type UserProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Age      *int   `json:"age,omitempty"`
	Height   *int   `json:"height,omitempty"`
	Weight   *int   `json:"weight,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Location string `json:"location,omitempty"`

	HideEmail    bool `json:"hide_email"`
	HideAge      bool `json:"hide_age"`
	HideHeight   bool `json:"hide_height"`
	HideWeight   bool `json:"hide_weight"`
	HideBio      bool `json:"hide_bio"`
	HideLocation bool `json:"hide_location"`

	NotifyDailyReminder  bool `json:"notify_daily_reminder"`
	NotifyFriendActivity bool `json:"notify_friend_activity"`
	NotifyChallengeEnd   bool `json:"notify_challenge_end"`

	// ChallengeOrder is the user's preferred display order, presentation only.
	ChallengeOrder []string  `json:"challenge_order,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpdateProfileRequest is a partial-field update; nil means "leave as is".
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Age      *int    `json:"age,omitempty"`
	Height   *int    `json:"height,omitempty"`
	Weight   *int    `json:"weight,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Location *string `json:"location,omitempty"`

	HideEmail    *bool `json:"hide_email,omitempty"`
	HideAge      *bool `json:"hide_age,omitempty"`
	HideHeight   *bool `json:"hide_height,omitempty"`
	HideWeight   *bool `json:"hide_weight,omitempty"`
	HideBio      *bool `json:"hide_bio,omitempty"`
	HideLocation *bool `json:"hide_location,omitempty"`

	NotifyDailyReminder  *bool `json:"notify_daily_reminder,omitempty"`
	NotifyFriendActivity *bool `json:"notify_friend_activity,omitempty"`
	NotifyChallengeEnd   *bool `json:"notify_challenge_end,omitempty"`
}
