package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/zhouzirui/z-perception/backend/internal/logger"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
	"github.com/zhouzirui/z-perception/backend/internal/store"
)

const managerComponent = "session_manager"

// ConfigFunc builds the session configuration for one user. It is called once per Open, so
// stateful collaborators such as the analyzer must be fresh instances.
type ConfigFunc func(userID string) Config

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Config          ConfigFunc
	Store           store.Store
	Log             *logger.Logger
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	// PersistTimeout bounds each save made on eviction or shutdown.
	PersistTimeout time.Duration
}

// entry 会话条目，mu 串行化同一会话上的所有调用
type entry struct {
	mu      sync.Mutex
	session *Session
	closed  bool
}

// Manager 管理多个用户会话：空闲过期后自动持久化，并在重新打开时从存储恢复。
type Manager struct {
	mu             sync.Mutex
	sessions       *cache.Cache
	store          store.Store
	configFor      ConfigFunc
	log            *logger.Logger
	persistTimeout time.Duration
}

// NewManager 创建会话管理器
func NewManager(opts ManagerOptions) *Manager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Log == nil {
		opts.Log = logger.NewNop()
	}
	if opts.Config == nil {
		opts.Config = func(string) Config { return Config{} }
	}

	m := &Manager{
		sessions:       cache.New(opts.IdleTTL, opts.CleanupInterval),
		store:          opts.Store,
		configFor:      opts.Config,
		log:            opts.Log.With("service", "SessionManager"),
		persistTimeout: opts.PersistTimeout,
	}
	m.sessions.OnEvicted(m.onEvicted)
	return m
}

// Open returns once a live session exists for userID. restored reports whether a new
// session was loaded from the store; an already open session reports false.
func (m *Manager) Open(ctx context.Context, userID string) (restored bool, err error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, perrors.Errorf(perrors.KindInvalidInput, managerComponent, "open", "user id is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if item, found := m.sessions.Get(userID); found && !item.(*entry).isClosed() {
		return false, nil
	}
	// 过期但尚未清理的条目在这里先落盘，保证下面的 Load 能读到它
	m.sessions.DeleteExpired()

	cfg := m.configFor(userID)
	cfg.UserID = userID
	s, err := New(cfg)
	if err != nil {
		return false, err
	}

	state, err := m.store.Load(ctx, userID)
	switch {
	case err == nil:
		if err := s.Restore(state); err != nil {
			return false, err
		}
		restored = true
	case errors.Is(err, perrors.ErrNotFound):
	default:
		return false, err
	}

	m.sessions.SetDefault(userID, &entry{session: s})
	m.log.Info("session opened", "user_id", userID, "restored", restored)
	return restored, nil
}

// Do runs fn against the session of userID while holding that session's lock, then
// refreshes its idle deadline. Unknown or closed sessions yield NotFound.
func (m *Manager) Do(ctx context.Context, userID string, fn func(ctx context.Context, s *Session) error) error {
	e, err := m.lookup(userID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return notOpen(userID)
	}
	if err := fn(ctx, e.session); err != nil {
		return err
	}
	m.sessions.SetDefault(userID, e)
	return nil
}

// Close persists the session of userID and removes it. It holds the manager lock
// throughout so a concurrent Open cannot slip in between marking the entry closed and
// removing it from the cache.
func (m *Manager) Close(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(userID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return notOpen(userID)
	}
	if err := m.store.Save(ctx, e.session.Snapshot()); err != nil {
		e.mu.Unlock()
		return err
	}
	e.closed = true
	e.mu.Unlock()

	m.sessions.Delete(userID)
	m.log.Info("session closed", "user_id", userID)
	return nil
}

// UserIDs returns the ids of all open sessions, sorted.
func (m *Manager) UserIDs() []string {
	items := m.sessions.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Shutdown persists every open session and empties the manager. It returns the first
// save error but still attempts every session.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for userID, item := range m.sessions.Items() {
		e := item.Object.(*entry)
		e.mu.Lock()
		if !e.closed {
			if err := m.store.Save(ctx, e.session.Snapshot()); err != nil {
				m.log.Error("persist session failed", "user_id", userID, "error", err)
				if first == nil {
					first = err
				}
			}
			e.closed = true
		}
		e.mu.Unlock()
	}
	m.sessions.Flush()
	return first
}

func (e *entry) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (m *Manager) lookup(userID string) (*entry, error) {
	item, found := m.sessions.Get(userID)
	if !found {
		return nil, notOpen(userID)
	}
	return item.(*entry), nil
}

// onEvicted 在空闲过期或删除时调用；Close 已持久化的条目直接跳过
func (m *Manager) onEvicted(userID string, item interface{}) {
	e := item.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), m.persistTimeout)
	defer cancel()
	if err := m.store.Save(ctx, e.session.Snapshot()); err != nil {
		m.log.Error("persist expired session failed", "user_id", userID, "error", err)
		return
	}
	m.log.Info("session expired", "user_id", userID)
}

func notOpen(userID string) error {
	return perrors.Errorf(perrors.KindNotFound, managerComponent, "lookup", "no open session for user %q", userID)
}
