package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-perception/backend/internal/logger"
	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

// failingAnalyzer fails every ProcessText call with an analysis error.
type failingAnalyzer struct {
	calls int
}

func (a *failingAnalyzer) AnalyzeSentiment(context.Context, string) (perception.SentimentResult, error) {
	return perception.SentimentResult{}, perrors.Errorf(perrors.KindAnalysis, "analyzer", "analyze_sentiment", "model timeout")
}

func (a *failingAnalyzer) DetectContext(context.Context, string) error { return nil }

func (a *failingAnalyzer) ProcessText(ctx context.Context, text string) (perception.SentimentResult, error) {
	a.calls++
	return a.AnalyzeSentiment(ctx, text)
}

func (a *failingAnalyzer) Context() perception.ContextSnapshot { return perception.ContextSnapshot{} }

type failingExplainer struct{}

func (failingExplainer) Explain(context.Context, string, perception.ContextSnapshot) (string, error) {
	return "", errors.New("explainer offline")
}

func newSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	if cfg.UserID == "" {
		cfg.UserID = "user123"
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestNewRequiresUserID(t *testing.T) {
	sink := &logger.RecordingSink{}
	_, err := New(Config{UserID: " ", Sink: sink})
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrInvalidInput))
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, string(perrors.KindInvalidInput), sink.Events()[0].Kind)
}

func TestTextInputScenario(t *testing.T) {
	s := newSession(t, Config{UserID: "user123"})
	ctx := context.Background()

	result, err := s.ProcessInput(ctx, "Hello, how are you?", perception.Text)
	require.NoError(t, err)
	require.NotNil(t, result.Sentiment)
	assert.NotEmpty(t, result.Sentiment.Sentiment)
	assert.GreaterOrEqual(t, result.Sentiment.Confidence, 0.0)
	assert.LessOrEqual(t, result.Sentiment.Confidence, 1.0)

	_, err = s.AddUserFeedback(perception.FeedbackEntry{Message: "Great response!", Rating: 5})
	require.NoError(t, err)
	summary := s.GetFeedbackAnalysis()
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 5.0, summary.AverageRating)

	profile := s.GetUserProfile()
	assert.Equal(t, "user123", profile.UserID)
	assert.Empty(t, profile.Preferences)
	require.Len(t, profile.History, 1)
	assert.Equal(t, "Hello, how are you?", profile.History[0].Input)
	assert.Equal(t, perception.Text, profile.History[0].Modality)
	assert.NotEmpty(t, profile.History[0].ID)
}

func TestUnsupportedModalityLeavesHistoryUnchanged(t *testing.T) {
	sink := &logger.RecordingSink{}
	s := newSession(t, Config{Sink: sink})

	_, err := s.ProcessInput(context.Background(), "payload", perception.Modality("bogus"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrUnsupportedModality))
	assert.Empty(t, s.GetUserProfile().History)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, string(perrors.KindUnsupportedModality), events[0].Kind)
	assert.Equal(t, "session", events[0].Component)
	assert.Equal(t, "process_input", events[0].Op)
}

func TestVoiceRoutesTranscriptThroughAnalyzer(t *testing.T) {
	s := newSession(t, Config{})

	result, err := s.ProcessInput(context.Background(), "thank you, this is great", perception.Voice)
	require.NoError(t, err)
	require.NotNil(t, result.Sentiment)
	assert.Equal(t, perception.Voice, result.Modality)

	voice, ok := s.GetProcessedData().Get(perception.Voice)
	require.True(t, ok)
	assert.Equal(t, "thank you, this is great", voice)
	assert.Equal(t, "en", s.CurrentContext().Language)
}

func TestVoiceFailureRollsBackIngestion(t *testing.T) {
	analyzer := &failingAnalyzer{}
	sink := &logger.RecordingSink{}
	s := newSession(t, Config{Analyzer: analyzer, Sink: sink})
	ctx := context.Background()

	_, err := s.ProcessInput(ctx, "a photo of a cat", perception.Visual)
	require.NoError(t, err)

	_, err = s.ProcessInput(ctx, "hello there", perception.Voice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrAnalysis))
	assert.Equal(t, 1, analyzer.calls)

	processed := s.GetProcessedData()
	assert.Nil(t, processed.Voice)
	require.NotNil(t, processed.Visual)
	assert.Len(t, s.GetUserProfile().History, 1)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "analyzer", events[0].Component)
}

func TestTextFailureIsNotRecorded(t *testing.T) {
	s := newSession(t, Config{Analyzer: &failingAnalyzer{}})

	_, err := s.ProcessInput(context.Background(), "hello", perception.Text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrAnalysis))
	assert.Empty(t, s.GetUserProfile().History)
}

func TestVisualReturnsAcknowledgment(t *testing.T) {
	analyzer := &failingAnalyzer{}
	s := newSession(t, Config{Analyzer: analyzer})

	result, err := s.ProcessInput(context.Background(), "frame-001.png", perception.Visual)
	require.NoError(t, err)
	assert.Equal(t, perception.VisualAcknowledgment, result.Acknowledgment)
	assert.Nil(t, result.Sentiment)
	assert.Zero(t, analyzer.calls)

	history := s.GetUserProfile().History
	require.Len(t, history, 1)
	assert.Equal(t, perception.VisualAcknowledgment, history[0].Analysis.Acknowledgment)
}

func TestEmptyInputIsInvalid(t *testing.T) {
	s := newSession(t, Config{})

	for _, m := range perception.Modalities {
		_, err := s.ProcessInput(context.Background(), "   ", m)
		assert.True(t, errors.Is(err, perrors.ErrInvalidInput), "modality %s", m)
	}
	assert.Empty(t, s.GetUserProfile().History)
	assert.Equal(t, perception.ModalitySnapshot{}, s.GetProcessedData())
}

func TestCancelledContextDoesNotAppend(t *testing.T) {
	s := newSession(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ProcessInput(ctx, "hello", perception.Text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrAnalysis))
	assert.Empty(t, s.GetUserProfile().History)
}

func TestHistoryGrowsByOnePerSuccess(t *testing.T) {
	s := newSession(t, Config{})
	ctx := context.Background()

	inputs := []struct {
		input    string
		modality perception.Modality
	}{
		{"I love this", perception.Text},
		{"not sure", perception.Voice},
		{"frame.jpg", perception.Visual},
	}
	for i, in := range inputs {
		before := s.GetUserProfile().History
		_, err := s.ProcessInput(ctx, in.input, in.modality)
		require.NoError(t, err)
		after := s.GetUserProfile().History
		require.Len(t, after, i+1)
		assert.Equal(t, before, after[:len(before)])
	}
}

func TestExplanationLifecycle(t *testing.T) {
	sink := &logger.RecordingSink{}
	s := newSession(t, Config{Sink: sink})
	ctx := context.Background()

	_, err := s.GetExplanation("resp-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrNotFound))

	_, err = s.ProcessInput(ctx, "why is the sky blue?", perception.Text)
	require.NoError(t, err)

	generated, err := s.GenerateExplanation(ctx, "resp-1", s.CurrentContext())
	require.NoError(t, err)

	got, err := s.GetExplanation("resp-1")
	require.NoError(t, err)
	assert.Equal(t, generated.Rationale, got.Rationale)
	assert.Contains(t, got.Rationale, "question=true")

	require.Len(t, sink.Events(), 1)
	assert.Equal(t, string(perrors.KindNotFound), sink.Events()[0].Kind)
}

func TestExplainerFailureIsCollaboratorError(t *testing.T) {
	s := newSession(t, Config{Explainer: failingExplainer{}})

	_, err := s.GenerateExplanation(context.Background(), "resp-1", perception.ContextSnapshot{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrCollaborator))
	assert.Contains(t, err.Error(), "explainer offline")
}

func TestBiasMitigationIsIdempotent(t *testing.T) {
	s := newSession(t, Config{FairnessAlgorithm: func(r perception.TrainingRecord) float64 {
		if r.Label == "approved" {
			return 0.9
		}
		return 0.4
	}})

	_, err := s.AddTrainingData(perception.TrainingRecord{Label: "approved", Payload: map[string]any{"score": 10}})
	require.NoError(t, err)
	_, err = s.AddTrainingData(perception.TrainingRecord{Label: "denied", Payload: map[string]any{"score": 3}})
	require.NoError(t, err)

	first, err := s.ApplyBiasMitigation()
	require.NoError(t, err)
	second, err := s.ApplyBiasMitigation()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "approved", first[0].Label)
	assert.Equal(t, 0.9, first[0].FairnessScore)
	assert.Equal(t, 0.4, first[1].FairnessScore)
}

func TestInvalidFeedbackIsReported(t *testing.T) {
	sink := &logger.RecordingSink{}
	s := newSession(t, Config{Sink: sink})

	_, err := s.AddUserFeedback(perception.FeedbackEntry{Message: "meh", Rating: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrInvalidInput))
	assert.Zero(t, s.GetFeedbackAnalysis().Count)
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, "feedback", sink.Events()[0].Component)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Config{})
	s.UpdatePreferences(map[string]any{"tone": "formal"})
	_, err := s.ProcessInput(ctx, "hello", perception.Text)
	require.NoError(t, err)
	_, err = s.AddUserFeedback(perception.FeedbackEntry{Message: "too slow", Rating: 2})
	require.NoError(t, err)

	state := s.Snapshot()

	restored := newSession(t, Config{})
	require.NoError(t, restored.Restore(state))
	assert.Equal(t, s.GetUserProfile(), restored.GetUserProfile())
	assert.Equal(t, s.GetFeedbackAnalysis(), restored.GetFeedbackAnalysis())
}

func TestRestoreIsAllOrNothing(t *testing.T) {
	s := newSession(t, Config{})
	s.UpdatePreferences(map[string]any{"tone": "casual"})

	state := perception.SessionState{
		Profile: perception.ProfileSnapshot{
			UserID:      "user123",
			Preferences: map[string]any{"tone": "formal"},
		},
		Feedback: []perception.FeedbackEntry{{Message: "bad rating", Rating: 0}},
	}
	err := s.Restore(state)
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrInvalidInput))
	assert.Equal(t, "casual", s.GetUserProfile().Preferences["tone"])

	other := state
	other.Profile.UserID = "someone-else"
	other.Feedback = nil
	assert.Error(t, s.Restore(other))
}

func TestProfileViewCannotMutateNestedPreferences(t *testing.T) {
	s := newSession(t, Config{})
	s.UpdatePreferences(map[string]any{"ui": map[string]any{"theme": "dark"}})

	view := s.GetUserProfile()
	view.Preferences["ui"].(map[string]any)["theme"] = "light"

	assert.Equal(t, "dark", s.GetUserProfile().Preferences["ui"].(map[string]any)["theme"])
}

func TestBiasMitigationOutputIsDetached(t *testing.T) {
	s := newSession(t, Config{})
	_, err := s.AddTrainingData(perception.TrainingRecord{Payload: map[string]any{"features": map[string]any{"x": 1.0}}})
	require.NoError(t, err)

	first, err := s.ApplyBiasMitigation()
	require.NoError(t, err)
	first[0].Payload["features"].(map[string]any)["x"] = 99.0

	second, err := s.ApplyBiasMitigation()
	require.NoError(t, err)
	assert.Equal(t, 1.0, second[0].Payload["features"].(map[string]any)["x"])
}
