// Package session composes the analysis components into one per-user perception session.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/z-perception/backend/internal/logger"
	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
	"github.com/zhouzirui/z-perception/backend/internal/service/analyzer"
	"github.com/zhouzirui/z-perception/backend/internal/service/explain"
	"github.com/zhouzirui/z-perception/backend/internal/service/fairness"
	"github.com/zhouzirui/z-perception/backend/internal/service/feedback"
	"github.com/zhouzirui/z-perception/backend/internal/service/ingest"
	"github.com/zhouzirui/z-perception/backend/internal/service/profile"
)

const component = "session"

// Config is the construction-time configuration of a session. Only UserID is required;
// nil collaborators are replaced with the defaults of each component.
type Config struct {
	UserID            string
	Analyzer          analyzer.TextAnalyzer
	FairnessAlgorithm fairness.ScoreFunc
	Explainer         explain.Explainer
	FeedbackStrategy  feedback.Strategy
	Sink              logger.Sink
}

// Session binds one user profile to its own analyzer, ingestor, feedback store, explanation
// registry and fairness adjuster. A Session is not safe for concurrent use; callers that
// share one must serialize access (see Manager).
type Session struct {
	profile      *profile.Profile
	analyzer     analyzer.TextAnalyzer
	ingestor     *ingest.Ingestor
	feedback     *feedback.Store
	explanations *explain.Registry
	fairness     *fairness.Adjuster
	sink         logger.Sink
	now          func() time.Time
}

// New builds a session from cfg.
func New(cfg Config) (*Session, error) {
	sink := cfg.Sink
	if sink == nil {
		sink = logger.NopSink{}
	}

	p, err := profile.New(cfg.UserID)
	if err != nil {
		sink.Emit(event("new", err))
		return nil, err
	}

	textAnalyzer := cfg.Analyzer
	if textAnalyzer == nil {
		textAnalyzer = analyzer.New(nil)
	}

	return &Session{
		profile:      p,
		analyzer:     textAnalyzer,
		ingestor:     ingest.New(),
		feedback:     feedback.New(cfg.FeedbackStrategy),
		explanations: explain.New(cfg.Explainer),
		fairness:     fairness.New(cfg.FairnessAlgorithm),
		sink:         sink,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// UserID returns the identifier of the session's user.
func (s *Session) UserID() string { return s.profile.UserID() }

// ProcessInput routes input by modality, records the interaction and returns the result.
// Text goes straight to the analyzer. Voice is ingested and its transcript analyzed. Visual
// is ingested and acknowledged. Nothing is recorded unless the whole call succeeds.
func (s *Session) ProcessInput(ctx context.Context, input string, modality perception.Modality) (perception.AnalysisResult, error) {
	const op = "process_input"
	result, err := s.route(ctx, input, modality)
	if err != nil {
		return perception.AnalysisResult{}, s.fail(op, err)
	}

	s.profile.AddInteraction(perception.InteractionRecord{
		ID:        uuid.NewString(),
		Input:     input,
		Modality:  modality,
		Analysis:  result,
		CreatedAt: s.now(),
	})
	return result.Clone(), nil
}

func (s *Session) route(ctx context.Context, input string, modality perception.Modality) (perception.AnalysisResult, error) {
	if !modality.Valid() {
		return perception.AnalysisResult{}, perrors.Errorf(perrors.KindUnsupportedModality, component, "process_input", "modality %q", modality)
	}
	if strings.TrimSpace(input) == "" {
		return perception.AnalysisResult{}, perrors.Errorf(perrors.KindInvalidInput, component, "process_input", "%s input is empty", modality)
	}

	switch modality {
	case perception.Text:
		sentiment, err := s.analyzer.ProcessText(ctx, input)
		if err != nil {
			return perception.AnalysisResult{}, err
		}
		return perception.AnalysisResult{Modality: modality, Sentiment: &sentiment}, nil

	case perception.Voice:
		previous := s.ingestor.Snapshot()
		if err := s.ingestor.Ingest(modality, input); err != nil {
			return perception.AnalysisResult{}, err
		}
		transcript, _ := s.ingestor.Latest(perception.Voice)
		sentiment, err := s.analyzer.ProcessText(ctx, transcript)
		if err != nil {
			s.ingestor.Restore(previous)
			return perception.AnalysisResult{}, err
		}
		return perception.AnalysisResult{Modality: modality, Sentiment: &sentiment}, nil

	default:
		if err := s.ingestor.Ingest(modality, input); err != nil {
			return perception.AnalysisResult{}, err
		}
		return perception.AnalysisResult{Modality: modality, Acknowledgment: perception.VisualAcknowledgment}, nil
	}
}

// GetUserProfile returns a detached view of the profile.
func (s *Session) GetUserProfile() perception.ProfileSnapshot {
	return s.profile.Snapshot()
}

// UpdatePreferences merges partial into the user's preferences.
func (s *Session) UpdatePreferences(partial map[string]any) {
	s.profile.UpdatePreferences(partial)
}

// AddUserFeedback appends entry to the feedback log.
func (s *Session) AddUserFeedback(entry perception.FeedbackEntry) (perception.FeedbackEntry, error) {
	stored, err := s.feedback.Add(entry)
	if err != nil {
		return perception.FeedbackEntry{}, s.fail("add_user_feedback", err)
	}
	return stored, nil
}

// GetFeedbackAnalysis summarizes the feedback log.
func (s *Session) GetFeedbackAnalysis() perception.FeedbackSummary {
	return s.feedback.Analyze()
}

// GenerateExplanation builds and stores the rationale for responseKey from snapshot.
func (s *Session) GenerateExplanation(ctx context.Context, responseKey string, snapshot perception.ContextSnapshot) (perception.ExplanationEntry, error) {
	entry, err := s.explanations.Generate(ctx, responseKey, snapshot)
	if err != nil {
		return perception.ExplanationEntry{}, s.fail("generate_explanation", err)
	}
	return entry, nil
}

// GetExplanation returns the rationale stored for responseKey.
func (s *Session) GetExplanation(responseKey string) (perception.ExplanationEntry, error) {
	entry, err := s.explanations.Get(responseKey)
	if err != nil {
		return perception.ExplanationEntry{}, s.fail("get_explanation", err)
	}
	return entry, nil
}

// AddTrainingData stores a training record for fairness adjustment.
func (s *Session) AddTrainingData(record perception.TrainingRecord) (perception.TrainingRecord, error) {
	stored, err := s.fairness.Add(record)
	if err != nil {
		return perception.TrainingRecord{}, s.fail("add_training_data", err)
	}
	return stored, nil
}

// ApplyBiasMitigation returns fairness-scored copies of the stored training records.
func (s *Session) ApplyBiasMitigation() ([]perception.AdjustedRecord, error) {
	adjusted, err := s.fairness.Apply()
	if err != nil {
		return nil, s.fail("apply_bias_mitigation", err)
	}
	return adjusted, nil
}

// GetProcessedData returns the latest payload per modality.
func (s *Session) GetProcessedData() perception.ModalitySnapshot {
	return s.ingestor.Snapshot()
}

// CurrentContext returns the context detected for the latest analyzed text.
func (s *Session) CurrentContext() perception.ContextSnapshot {
	return s.analyzer.Context()
}

// Snapshot returns the persistable state of the session.
func (s *Session) Snapshot() perception.SessionState {
	return perception.SessionState{
		Profile:  s.profile.Snapshot(),
		Feedback: s.feedback.Entries(),
	}
}

// Restore loads state into the session. Either both parts are restored or neither is.
func (s *Session) Restore(state perception.SessionState) error {
	const op = "restore"
	previous := s.profile.Snapshot()
	if err := s.profile.Restore(state.Profile); err != nil {
		return s.fail(op, err)
	}
	if err := s.feedback.Restore(state.Feedback); err != nil {
		_ = s.profile.Restore(previous)
		return s.fail(op, err)
	}
	return nil
}

// fail reports err to the sink and returns it unchanged.
func (s *Session) fail(op string, err error) error {
	s.sink.Emit(event(op, err))
	return err
}

func event(op string, err error) logger.Event {
	kind, ok := perrors.KindOf(err)
	if !ok {
		kind = perrors.KindCollaborator
	}
	comp := perrors.ComponentOf(err)
	if comp == "" {
		comp = component
	}
	return logger.Event{
		Kind:      string(kind),
		Component: comp,
		Op:        op,
		Message:   err.Error(),
		Err:       err,
	}
}
