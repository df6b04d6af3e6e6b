package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeSadTextIsNegative(t *testing.T) {
	decision := Analyze("我今天很难过，也很失望")
	assert.Equal(t, Sad, decision.Emotion)
	assert.Equal(t, Negative, decision.Polarity)
	assert.InDelta(t, 0.5, decision.Confidence, 0.5)
}

func TestAnalyzeExcitedText(t *testing.T) {
	decision := Analyze("Wow, I can't wait!!!")
	assert.Equal(t, Excited, decision.Emotion)
	assert.Equal(t, Positive, decision.Polarity)
	assert.GreaterOrEqual(t, decision.Confidence, 0.35)
	assert.LessOrEqual(t, decision.Confidence, 0.99)
}

func TestAnalyzeNeutralWhenNoSignal(t *testing.T) {
	decision := Analyze("the train leaves at nine")
	assert.Equal(t, Neutral, decision.Emotion)
	assert.Equal(t, Mixed, decision.Polarity)
	assert.Equal(t, 0.5, decision.Confidence)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	text := "thanks, this is great but I am worried"
	first := Analyze(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Analyze(text))
	}
}

func TestDetectGreeting(t *testing.T) {
	ctx := Detect("Hello, how are you?")
	assert.Equal(t, "en", ctx.Language)
	assert.True(t, ctx.Question)
	assert.Equal(t, 4, ctx.WordCount)
	assert.Equal(t, Calm, ctx.Emotion)
	assert.Equal(t, []string{"how are you"}, ctx.Keywords)
}

func TestDetectChineseQuestion(t *testing.T) {
	ctx := Detect("你为什么不开心")
	assert.Equal(t, "zh", ctx.Language)
	assert.True(t, ctx.Question)
	assert.Equal(t, 7, ctx.WordCount)
}

func TestDetectEmpty(t *testing.T) {
	ctx := Detect("   ")
	assert.Equal(t, "", ctx.Language)
	assert.Equal(t, Neutral, ctx.Emotion)
	assert.Empty(t, ctx.Keywords)
	assert.Zero(t, ctx.WordCount)
}
