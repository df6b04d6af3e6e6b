package perception

// ProfileSnapshot is a read view of a user profile.
type ProfileSnapshot struct {
	UserID      string              `json:"userId"`
	Preferences map[string]any      `json:"preferences"`
	History     []InteractionRecord `json:"history"`
}

// SessionState is the persisted part of a session: the profile and the feedback log.
type SessionState struct {
	Profile  ProfileSnapshot `json:"profile"`
	Feedback []FeedbackEntry `json:"feedback"`
}
