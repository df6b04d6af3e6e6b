// Package feedback keeps the append-only log of user feedback and reduces it into a summary.
package feedback

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

const component = "feedback"

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// Strategy reduces a feedback log into a summary. It must be deterministic for a given log.
type Strategy func(entries []perception.FeedbackEntry) perception.FeedbackSummary

// Store is an append-only feedback log.
type Store struct {
	entries  []perception.FeedbackEntry
	strategy Strategy
}

// New returns an empty store. A nil strategy selects KeywordStrategy.
func New(strategy Strategy) *Store {
	if strategy == nil {
		strategy = KeywordStrategy
	}
	return &Store{
		entries:  make([]perception.FeedbackEntry, 0, 16),
		strategy: strategy,
	}
}

// Add validates entry, assigns an ID and timestamp when missing, and appends it.
func (s *Store) Add(entry perception.FeedbackEntry) (perception.FeedbackEntry, error) {
	if err := validate("add", entry); err != nil {
		return perception.FeedbackEntry{}, err
	}

	entry.Message = strings.TrimSpace(entry.Message)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.entries = append(s.entries, entry)
	return entry, nil
}

// Analyze reduces the stored log with the configured strategy.
func (s *Store) Analyze() perception.FeedbackSummary {
	return s.strategy(s.Entries())
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the log in submission order.
func (s *Store) Entries() []perception.FeedbackEntry {
	copied := make([]perception.FeedbackEntry, len(s.entries))
	copy(copied, s.entries)
	return copied
}

// Restore replaces the log with entries after validating every one of them. On error the
// store is unchanged.
func (s *Store) Restore(entries []perception.FeedbackEntry) error {
	for _, e := range entries {
		if err := validate("restore", e); err != nil {
			return err
		}
	}
	restored := make([]perception.FeedbackEntry, len(entries), len(entries)+16)
	copy(restored, entries)
	s.entries = restored
	return nil
}

func validate(op string, entry perception.FeedbackEntry) error {
	if strings.TrimSpace(entry.Message) == "" {
		return perrors.Errorf(perrors.KindInvalidInput, component, op, "message is empty")
	}
	if entry.Rating < MinRating || entry.Rating > MaxRating {
		return perrors.Errorf(perrors.KindInvalidInput, component, op, "rating %d outside [%d,%d]", entry.Rating, MinRating, MaxRating)
	}
	return nil
}
