package perception

import "time"

// ExplanationEntry binds a rationale to the response it explains.
type ExplanationEntry struct {
	ResponseKey string          `json:"responseKey"`
	Rationale   string          `json:"rationale"`
	Context     ContextSnapshot `json:"context"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Clone returns a deep copy of e.
func (e ExplanationEntry) Clone() ExplanationEntry {
	out := e
	out.Context = e.Context.Clone()
	return out
}
