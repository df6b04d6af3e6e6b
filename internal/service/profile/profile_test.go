package profile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

func TestUpdatePreferencesIsLastWriteWins(t *testing.T) {
	p, err := New("user123")
	require.NoError(t, err)

	p.UpdatePreferences(map[string]any{"a": 1})
	p.UpdatePreferences(map[string]any{"b": 2})
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, p.Snapshot().Preferences)

	p.UpdatePreferences(map[string]any{"a": 3})
	assert.Equal(t, map[string]any{"a": 3, "b": 2}, p.Snapshot().Preferences)
}

func TestAddInteractionAppendsInOrder(t *testing.T) {
	p, err := New("user123")
	require.NoError(t, err)

	for _, input := range []string{"one", "two", "three"} {
		before := p.Snapshot().History
		p.AddInteraction(perception.InteractionRecord{Input: input, Modality: perception.Text})
		after := p.Snapshot().History
		require.Len(t, after, len(before)+1)
		assert.Equal(t, before, after[:len(before)])
	}
	assert.Equal(t, "three", p.Snapshot().History[2].Input)
}

func TestSnapshotCannotMutateProfile(t *testing.T) {
	p, err := New("user123")
	require.NoError(t, err)
	p.UpdatePreferences(map[string]any{"theme": "dark"})
	p.AddInteraction(perception.InteractionRecord{
		Input:    "hi",
		Analysis: perception.AnalysisResult{Sentiment: &perception.SentimentResult{Sentiment: "positive", Confidence: 0.9}},
	})

	snap := p.Snapshot()
	snap.Preferences["theme"] = "light"
	snap.History[0].Input = "changed"
	snap.History[0].Analysis.Sentiment.Sentiment = "negative"
	snap.History = append(snap.History, perception.InteractionRecord{})

	fresh := p.Snapshot()
	assert.Equal(t, "dark", fresh.Preferences["theme"])
	require.Len(t, fresh.History, 1)
	assert.Equal(t, "hi", fresh.History[0].Input)
	assert.Equal(t, "positive", fresh.History[0].Analysis.Sentiment.Sentiment)
}

func TestNestedPreferencesAreDetached(t *testing.T) {
	p, err := New("user123")
	require.NoError(t, err)

	partial := map[string]any{
		"ui":    map[string]any{"theme": "dark"},
		"langs": []any{"en", "zh"},
	}
	p.UpdatePreferences(partial)
	partial["ui"].(map[string]any)["theme"] = "caller"

	snap := p.Snapshot()
	snap.Preferences["ui"].(map[string]any)["theme"] = "light"
	snap.Preferences["langs"].([]any)[0] = "fr"

	fresh := p.Snapshot()
	assert.Equal(t, "dark", fresh.Preferences["ui"].(map[string]any)["theme"])
	assert.Equal(t, []any{"en", "zh"}, fresh.Preferences["langs"])
}

func TestRestoreDetachesNestedPreferences(t *testing.T) {
	p, err := New("u1")
	require.NoError(t, err)

	snap := perception.ProfileSnapshot{
		UserID:      "u1",
		Preferences: map[string]any{"ui": map[string]any{"theme": "dark"}},
	}
	require.NoError(t, p.Restore(snap))
	snap.Preferences["ui"].(map[string]any)["theme"] = "light"

	assert.Equal(t, "dark", p.Snapshot().Preferences["ui"].(map[string]any)["theme"])
}

func TestNewRequiresUserID(t *testing.T) {
	_, err := New("  ")
	assert.True(t, errors.Is(err, perrors.ErrInvalidInput))
}

func TestRestore(t *testing.T) {
	p, err := New("u1")
	require.NoError(t, err)

	err = p.Restore(perception.ProfileSnapshot{UserID: "u2"})
	assert.True(t, errors.Is(err, perrors.ErrInvalidInput))

	snap := perception.ProfileSnapshot{
		UserID:      "u1",
		Preferences: map[string]any{"lang": "en"},
		History:     []perception.InteractionRecord{{Input: "x", Modality: perception.Voice}},
	}
	require.NoError(t, p.Restore(snap))
	assert.Equal(t, snap, p.Snapshot())
	assert.Equal(t, 1, p.HistoryLen())
}
