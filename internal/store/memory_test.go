package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

func sampleState(userID string) perception.SessionState {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return perception.SessionState{
		Profile: perception.ProfileSnapshot{
			UserID:      userID,
			Preferences: map[string]any{"tone": "formal"},
			History: []perception.InteractionRecord{{
				ID:       "rec-1",
				Input:    "hello",
				Modality: perception.Text,
				Analysis: perception.AnalysisResult{
					Modality:  perception.Text,
					Sentiment: &perception.SentimentResult{Sentiment: "neutral", Confidence: 0.5},
				},
				CreatedAt: created,
			}},
		},
		Feedback: []perception.FeedbackEntry{{ID: "fb-1", Message: "ok", Rating: 4, CreatedAt: created}},
	}
}

func TestMemoryStoreSaveLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleState("user123")))
	got, err := s.Load(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, sampleState("user123"), got)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreLoadIsDetached(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleState("user123")))

	got, err := s.Load(ctx, "user123")
	require.NoError(t, err)
	got.Profile.Preferences["tone"] = "casual"
	got.Profile.History[0].Analysis.Sentiment.Sentiment = "negative"

	again, err := s.Load(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, "formal", again.Profile.Preferences["tone"])
	assert.Equal(t, "neutral", again.Profile.History[0].Analysis.Sentiment.Sentiment)
}

func TestMemoryStoreMissIsNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Load(context.Background(), "ghost")
	assert.True(t, errors.Is(err, perrors.ErrNotFound))
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleState("user123")))

	require.NoError(t, s.Delete(ctx, "user123"))
	_, err := s.Load(ctx, "user123")
	assert.True(t, errors.Is(err, perrors.ErrNotFound))
}

func TestMemoryStoreRejectsBlankUser(t *testing.T) {
	s := NewMemoryStore()

	err := s.Save(context.Background(), sampleState(""))
	assert.True(t, errors.Is(err, perrors.ErrInvalidInput))
}
