// Package store persists session state across process restarts.
package store

import (
	"context"
	"strings"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

const component = "store"

// Store saves and loads the persisted part of a session, keyed by user id.
// Load returns a perrors NotFound error when nothing is stored for the user.
type Store interface {
	Save(ctx context.Context, state perception.SessionState) error
	Load(ctx context.Context, userID string) (perception.SessionState, error)
	Delete(ctx context.Context, userID string) error
	Close() error
}

func validateUserID(op, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return perrors.Errorf(perrors.KindInvalidInput, component, op, "user id is empty")
	}
	return nil
}
