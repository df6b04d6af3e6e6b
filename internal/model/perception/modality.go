package perception

import "strings"

// Modality identifies the channel an input arrived on.
type Modality string

const (
	Text   Modality = "text"
	Voice  Modality = "voice"
	Visual Modality = "visual"
)

// Modalities lists the recognized channels in a stable order.
var Modalities = []Modality{Text, Voice, Visual}

// ParseModality normalizes raw and reports whether it names a recognized channel.
func ParseModality(raw string) (Modality, bool) {
	m := Modality(strings.ToLower(strings.TrimSpace(raw)))
	return m, m.Valid()
}

// Valid reports whether m is one of text, voice or visual.
func (m Modality) Valid() bool {
	switch m {
	case Text, Voice, Visual:
		return true
	default:
		return false
	}
}

// ModalitySnapshot holds the last payload seen on each channel. Absent channels stay nil.
type ModalitySnapshot struct {
	Text   *string `json:"text,omitempty"`
	Voice  *string `json:"voice,omitempty"`
	Visual *string `json:"visual,omitempty"`
}

// Get returns the payload stored for m.
func (s ModalitySnapshot) Get(m Modality) (string, bool) {
	var slot *string
	switch m {
	case Text:
		slot = s.Text
	case Voice:
		slot = s.Voice
	case Visual:
		slot = s.Visual
	}
	if slot == nil {
		return "", false
	}
	return *slot, true
}
