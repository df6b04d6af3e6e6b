// Package analyzer implements the text analysis capability: context detection followed by
// sentiment analysis, over a pluggable sentiment/context model.
package analyzer

import (
	"context"
	"strings"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

const component = "analyzer"

// Model is the external sentiment/context model. Implementations report failures as
// errors and never substitute a default result for a failed call.
type Model interface {
	Analyze(ctx context.Context, text string) (perception.SentimentResult, error)
	DetectContext(ctx context.Context, text string) (perception.ContextSnapshot, error)
}

// TextAnalyzer is the contract the perception session depends on.
type TextAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (perception.SentimentResult, error)
	DetectContext(ctx context.Context, text string) error
	ProcessText(ctx context.Context, text string) (perception.SentimentResult, error)
	Context() perception.ContextSnapshot
}

// Analyzer is the default TextAnalyzer. It keeps the context detected for the latest text.
type Analyzer struct {
	model   Model
	current perception.ContextSnapshot
}

// New returns an Analyzer backed by model. A nil model falls back to the heuristic model.
func New(model Model) *Analyzer {
	if model == nil {
		model = NewHeuristicModel()
	}
	return &Analyzer{model: model}
}

// AnalyzeSentiment runs the model's sentiment judgment and validates its output.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, text string) (perception.SentimentResult, error) {
	const op = "analyze_sentiment"
	if err := validateText(op, text); err != nil {
		return perception.SentimentResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return perception.SentimentResult{}, perrors.New(perrors.KindAnalysis, component, op, err)
	}

	result, err := a.model.Analyze(ctx, text)
	if err != nil {
		return perception.SentimentResult{}, perrors.New(perrors.KindAnalysis, component, op, err)
	}
	if err := result.Validate(); err != nil {
		return perception.SentimentResult{}, perrors.New(perrors.KindAnalysis, component, op, err)
	}
	return result, nil
}

// DetectContext replaces the current context with the one detected for text. On failure
// the previous context is left untouched.
func (a *Analyzer) DetectContext(ctx context.Context, text string) error {
	const op = "detect_context"
	if err := validateText(op, text); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return perrors.New(perrors.KindAnalysis, component, op, err)
	}

	detected, err := a.model.DetectContext(ctx, text)
	if err != nil {
		return perrors.New(perrors.KindAnalysis, component, op, err)
	}
	a.current = detected.Clone()
	return nil
}

// ProcessText detects context and then analyzes sentiment. If context detection fails,
// sentiment is never computed; if sentiment fails, the prior context is restored.
func (a *Analyzer) ProcessText(ctx context.Context, text string) (perception.SentimentResult, error) {
	previous := a.current
	if err := a.DetectContext(ctx, text); err != nil {
		return perception.SentimentResult{}, err
	}

	result, err := a.AnalyzeSentiment(ctx, text)
	if err != nil {
		a.current = previous
		return perception.SentimentResult{}, err
	}
	return result, nil
}

// Context returns a copy of the context detected for the latest successfully processed text.
func (a *Analyzer) Context() perception.ContextSnapshot {
	return a.current.Clone()
}

// validateText reports blank text as an analysis failure. Sessions reject blank input
// as InvalidInput before it reaches the analyzer.
func validateText(op, text string) error {
	if strings.TrimSpace(text) == "" {
		return perrors.Errorf(perrors.KindAnalysis, component, op, "text is empty")
	}
	return nil
}
