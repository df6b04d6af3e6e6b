package perception

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SentimentResult is the judgment produced for one piece of text.
type SentimentResult struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// Validate checks the label is present and confidence lies in [0,1].
func (r SentimentResult) Validate() error {
	if strings.TrimSpace(r.Sentiment) == "" {
		return fmt.Errorf("sentiment label is empty")
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", r.Confidence)
	}
	return nil
}

// ContextSnapshot describes what the analyzer understood about the latest text.
type ContextSnapshot struct {
	Language   string    `json:"language,omitempty"`
	Emotion    string    `json:"emotion,omitempty"`
	Keywords   []string  `json:"keywords,omitempty"`
	Question   bool      `json:"question"`
	WordCount  int       `json:"wordCount"`
	DetectedAt time.Time `json:"detectedAt,omitempty"`
}

// IsZero reports whether no context has been detected yet.
func (c ContextSnapshot) IsZero() bool {
	return c.Language == "" && c.Emotion == "" && len(c.Keywords) == 0 && !c.Question && c.WordCount == 0 && c.DetectedAt.IsZero()
}

// Clone returns a copy that shares no slices with c.
func (c ContextSnapshot) Clone() ContextSnapshot {
	out := c
	if c.Keywords != nil {
		out.Keywords = append([]string(nil), c.Keywords...)
	}
	return out
}

// String renders the snapshot in a compact human-readable form.
func (c ContextSnapshot) String() string {
	if c.IsZero() {
		return "no detected context"
	}
	parts := make([]string, 0, 5)
	if c.Language != "" {
		parts = append(parts, "language="+c.Language)
	}
	if c.Emotion != "" {
		parts = append(parts, "emotion="+c.Emotion)
	}
	if len(c.Keywords) > 0 {
		parts = append(parts, "keywords="+strings.Join(c.Keywords, ","))
	}
	if c.Question {
		parts = append(parts, "question=true")
	}
	parts = append(parts, fmt.Sprintf("words=%d", c.WordCount))
	return strings.Join(parts, " ")
}
