package perception

// TrainingRecord is a labeled sample kept for fairness adjustment.
type TrainingRecord struct {
	ID      string         `json:"id"`
	Label   string         `json:"label,omitempty"`
	Payload map[string]any `json:"payload"`
}

// Clone deep-copies the payload so the copy shares no nested values with r.
func (r TrainingRecord) Clone() TrainingRecord {
	out := r
	out.Payload = CloneValues(r.Payload)
	return out
}

// AdjustedRecord is a training record plus its computed fairness score.
type AdjustedRecord struct {
	TrainingRecord
	FairnessScore float64 `json:"fairnessScore"`
}
