package perception

import "time"

// FeedbackEntry is a single piece of user feedback. Order of submission is order of storage.
type FeedbackEntry struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackSummary is the aggregate view over a feedback log.
type FeedbackSummary struct {
	Count         int      `json:"count"`
	AverageRating float64  `json:"averageRating"`
	NegativeCount int      `json:"negativeCount"`
	Suggestions   []string `json:"suggestions"`
}
