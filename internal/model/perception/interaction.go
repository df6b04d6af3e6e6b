package perception

import "time"

// VisualAcknowledgment is returned for visual input, which has no analyzer in this core.
const VisualAcknowledgment = "visual data processed"

// AnalysisResult is what processing one input yields. Text and voice carry a sentiment;
// visual carries only the acknowledgment.
type AnalysisResult struct {
	Modality       Modality         `json:"modality"`
	Sentiment      *SentimentResult `json:"sentiment,omitempty"`
	Acknowledgment string           `json:"acknowledgment,omitempty"`
}

// Clone returns a deep copy of r.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	if r.Sentiment != nil {
		s := *r.Sentiment
		out.Sentiment = &s
	}
	return out
}

// InteractionRecord is one entry of a user's chronological history.
type InteractionRecord struct {
	ID        string         `json:"id"`
	Input     string         `json:"input"`
	Modality  Modality       `json:"modality"`
	Analysis  AnalysisResult `json:"analysis"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Clone returns a deep copy of r.
func (r InteractionRecord) Clone() InteractionRecord {
	out := r
	out.Analysis = r.Analysis.Clone()
	return out
}
