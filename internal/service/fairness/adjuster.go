// Package fairness accumulates training records and produces fairness-scored copies of them.
package fairness

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

const component = "fairness"

// ScoreFunc is the pluggable fairness algorithm. It must be pure and return a value in [0,1].
type ScoreFunc func(record perception.TrainingRecord) float64

// SensitiveAttributes are payload keys DefaultScore treats as protected.
var SensitiveAttributes = []string{"age", "disability", "ethnicity", "gender", "nationality", "religion"}

// DefaultScore starts at 1 and subtracts 0.2 for every protected attribute present in the
// payload, so records that lean on fewer protected attributes score higher.
func DefaultScore(record perception.TrainingRecord) float64 {
	score := 1.0
	for key := range record.Payload {
		k := strings.ToLower(strings.TrimSpace(key))
		for _, attr := range SensitiveAttributes {
			if k == attr {
				score -= 0.2
				break
			}
		}
	}
	return math.Max(0, score)
}

// Adjuster keeps training records in insertion order.
type Adjuster struct {
	score   ScoreFunc
	records []perception.TrainingRecord
}

// New returns an empty adjuster. A nil score selects DefaultScore.
func New(score ScoreFunc) *Adjuster {
	if score == nil {
		score = DefaultScore
	}
	return &Adjuster{score: score}
}

// Add stores a private copy of record, assigning an ID when missing.
func (a *Adjuster) Add(record perception.TrainingRecord) (perception.TrainingRecord, error) {
	if len(record.Payload) == 0 {
		return perception.TrainingRecord{}, perrors.Errorf(perrors.KindInvalidInput, component, "add", "payload is empty")
	}
	stored := record.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	a.records = append(a.records, stored)
	return stored.Clone(), nil
}

// Apply scores a copy of every stored record. Output order equals insertion order and the
// stored records are never modified, so repeated calls return equal results.
func (a *Adjuster) Apply() ([]perception.AdjustedRecord, error) {
	adjusted := make([]perception.AdjustedRecord, 0, len(a.records))
	for _, rec := range a.records {
		score := a.score(rec.Clone())
		if math.IsNaN(score) || score < 0 || score > 1 {
			return nil, perrors.Errorf(perrors.KindCollaborator, component, "apply", "score %v for record %s outside [0,1]", score, rec.ID)
		}
		adjusted = append(adjusted, perception.AdjustedRecord{
			TrainingRecord: rec.Clone(),
			FairnessScore:  score,
		})
	}
	return adjusted, nil
}

// Records returns copies of the stored originals.
func (a *Adjuster) Records() []perception.TrainingRecord {
	out := make([]perception.TrainingRecord, len(a.records))
	for i, rec := range a.records {
		out[i] = rec.Clone()
	}
	return out
}
