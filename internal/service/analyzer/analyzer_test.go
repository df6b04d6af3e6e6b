package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

type stubModel struct {
	result     perception.SentimentResult
	analyzeErr error
	detected   perception.ContextSnapshot
	detectErr  error
	analyzed   int
}

func (m *stubModel) Analyze(_ context.Context, _ string) (perception.SentimentResult, error) {
	m.analyzed++
	return m.result, m.analyzeErr
}

func (m *stubModel) DetectContext(_ context.Context, _ string) (perception.ContextSnapshot, error) {
	return m.detected, m.detectErr
}

func TestProcessTextWithHeuristicModel(t *testing.T) {
	a := New(nil)

	result, err := a.ProcessText(context.Background(), "Hello, how are you?")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Sentiment)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)

	current := a.Context()
	assert.Equal(t, "en", current.Language)
	assert.True(t, current.Question)
	assert.False(t, current.DetectedAt.IsZero())
}

func TestEmptyTextIsAnalysisError(t *testing.T) {
	model := &stubModel{}
	a := New(model)

	_, err := a.ProcessText(context.Background(), "  ")
	assert.True(t, errors.Is(err, perrors.ErrAnalysis))
	_, err = a.AnalyzeSentiment(context.Background(), "")
	assert.True(t, errors.Is(err, perrors.ErrAnalysis))
	assert.True(t, errors.Is(a.DetectContext(context.Background(), "\t"), perrors.ErrAnalysis))
	assert.Zero(t, model.analyzed)
	assert.True(t, a.Context().IsZero())
}

func TestProcessTextSkipsSentimentWhenContextFails(t *testing.T) {
	model := &stubModel{detectErr: errors.New("context model down")}
	a := New(model)

	_, err := a.ProcessText(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrAnalysis))
	assert.Zero(t, model.analyzed)
	assert.True(t, a.Context().IsZero())
}

func TestProcessTextSurfacesModelFailure(t *testing.T) {
	cause := errors.New("sentiment model timeout")
	model := &stubModel{
		analyzeErr: cause,
		detected:   perception.ContextSnapshot{Language: "en", WordCount: 1},
	}
	a := New(model)

	_, err := a.ProcessText(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, perrors.ErrAnalysis))
	assert.True(t, errors.Is(err, cause))
}

func TestProcessTextRestoresContextOnSentimentFailure(t *testing.T) {
	model := &stubModel{
		result:   perception.SentimentResult{Sentiment: "positive", Confidence: 0.9},
		detected: perception.ContextSnapshot{Language: "en", Keywords: []string{"first"}},
	}
	a := New(model)
	_, err := a.ProcessText(context.Background(), "first")
	require.NoError(t, err)

	model.detected = perception.ContextSnapshot{Language: "fr", Keywords: []string{"second"}}
	model.analyzeErr = errors.New("boom")
	_, err = a.ProcessText(context.Background(), "second")
	require.Error(t, err)

	assert.Equal(t, []string{"first"}, a.Context().Keywords)
}

func TestAnalyzeSentimentRejectsOutOfRangeConfidence(t *testing.T) {
	for _, confidence := range []float64{-0.1, 1.01, math.NaN()} {
		a := New(&stubModel{result: perception.SentimentResult{Sentiment: "positive", Confidence: confidence}})
		_, err := a.AnalyzeSentiment(context.Background(), "text")
		assert.True(t, errors.Is(err, perrors.ErrAnalysis), "confidence %v", confidence)
	}
}

func TestAnalyzeSentimentHonorsCancellation(t *testing.T) {
	model := &stubModel{result: perception.SentimentResult{Sentiment: "positive", Confidence: 0.9}}
	a := New(model)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.ProcessText(ctx, "text")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, model.analyzed)
}

func TestContextReturnsCopy(t *testing.T) {
	model := &stubModel{
		result:   perception.SentimentResult{Sentiment: "neutral", Confidence: 0.5},
		detected: perception.ContextSnapshot{Keywords: []string{"a"}},
	}
	a := New(model)
	_, err := a.ProcessText(context.Background(), "a")
	require.NoError(t, err)

	snapshot := a.Context()
	snapshot.Keywords[0] = "mutated"
	assert.Equal(t, []string{"a"}, a.Context().Keywords)
}
