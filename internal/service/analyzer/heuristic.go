package analyzer

import (
	"context"
	"time"

	"github.com/zhouzirui/z-perception/backend/internal/analysis/emotion"
	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
)

// HeuristicModel is a deterministic keyword model. It needs no external service.
type HeuristicModel struct {
	now func() time.Time
}

func NewHeuristicModel() *HeuristicModel {
	return &HeuristicModel{now: func() time.Time { return time.Now().UTC() }}
}

func (m *HeuristicModel) Analyze(_ context.Context, text string) (perception.SentimentResult, error) {
	decision := emotion.Analyze(text)
	return perception.SentimentResult{
		Sentiment:  string(decision.Polarity),
		Confidence: decision.Confidence,
	}, nil
}

func (m *HeuristicModel) DetectContext(_ context.Context, text string) (perception.ContextSnapshot, error) {
	detected := emotion.Detect(text)
	return perception.ContextSnapshot{
		Language:   detected.Language,
		Emotion:    string(detected.Emotion),
		Keywords:   detected.Keywords,
		Question:   detected.Question,
		WordCount:  detected.WordCount,
		DetectedAt: m.now(),
	}, nil
}
