package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

// MemoryStore 进程内存储，重启后数据丢失。状态以 JSON 保存，读写双方互不共享引用。
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, state perception.SessionState) error {
	const op = "save"
	if err := validateUserID(op, state.Profile.UserID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return perrors.New(perrors.KindCollaborator, component, op, err)
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return perrors.New(perrors.KindCollaborator, component, op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.Profile.UserID] = raw
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, userID string) (perception.SessionState, error) {
	const op = "load"
	if err := validateUserID(op, userID); err != nil {
		return perception.SessionState{}, err
	}
	if err := ctx.Err(); err != nil {
		return perception.SessionState{}, perrors.New(perrors.KindCollaborator, component, op, err)
	}

	s.mu.RLock()
	raw, ok := s.states[userID]
	s.mu.RUnlock()
	if !ok {
		return perception.SessionState{}, perrors.Errorf(perrors.KindNotFound, component, op, "no state for user %q", userID)
	}

	var state perception.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return perception.SessionState{}, perrors.New(perrors.KindCollaborator, component, op, err)
	}
	return state, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	if err := validateUserID("delete", userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}

// Len 返回已保存的用户数
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

func (s *MemoryStore) Close() error { return nil }
