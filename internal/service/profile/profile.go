// Package profile holds one user's preferences and chronological interaction history.
package profile

import (
	"strings"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

const component = "profile"

// Profile is a mutable per-user record. The user ID never changes after New.
type Profile struct {
	userID      string
	preferences map[string]any
	history     []perception.InteractionRecord
}

// New creates an empty profile for userID.
func New(userID string) (*Profile, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return nil, perrors.Errorf(perrors.KindInvalidInput, component, "new", "user id is required")
	}
	return &Profile{
		userID:      id,
		preferences: make(map[string]any),
		history:     make([]perception.InteractionRecord, 0, 16),
	}, nil
}

func (p *Profile) UserID() string { return p.userID }

// UpdatePreferences shallow-merges partial into the preferences: keys in partial win,
// keys absent from partial are kept. Values are deep-copied on the way in.
func (p *Profile) UpdatePreferences(partial map[string]any) {
	for k, v := range partial {
		p.preferences[k] = perception.CloneValue(v)
	}
}

// AddInteraction appends record to the history.
func (p *Profile) AddInteraction(record perception.InteractionRecord) {
	p.history = append(p.history, record.Clone())
}

// HistoryLen returns the number of recorded interactions.
func (p *Profile) HistoryLen() int {
	return len(p.history)
}

// Snapshot returns a deep copy of the profile that callers may modify freely.
func (p *Profile) Snapshot() perception.ProfileSnapshot {
	prefs := perception.CloneValues(p.preferences)
	history := make([]perception.InteractionRecord, len(p.history))
	for i, rec := range p.history {
		history[i] = rec.Clone()
	}
	return perception.ProfileSnapshot{
		UserID:      p.userID,
		Preferences: prefs,
		History:     history,
	}
}

// Restore replaces preferences and history with those of snap. snap must belong to the
// same user.
func (p *Profile) Restore(snap perception.ProfileSnapshot) error {
	if snap.UserID != p.userID {
		return perrors.Errorf(perrors.KindInvalidInput, component, "restore", "snapshot user %q does not match %q", snap.UserID, p.userID)
	}
	prefs := perception.CloneValues(snap.Preferences)
	if prefs == nil {
		prefs = make(map[string]any)
	}
	history := make([]perception.InteractionRecord, len(snap.History), len(snap.History)+16)
	for i, rec := range snap.History {
		history[i] = rec.Clone()
	}
	p.preferences = prefs
	p.history = history
	return nil
}
