package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/zhouzirui/z-perception/backend/internal/logger"
	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// TTL of a saved state; zero keeps it forever.
	TTL time.Duration
}

// RedisStore keeps one JSON document per user under KeyPrefix+userID.
type RedisStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects and pings the server before returning.
func NewRedisStore(opts RedisOptions, log *logger.Logger) (*RedisStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "perception:session:"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		log:    log.With("service", "RedisStore"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    opts.TTL,
	}, nil
}

func (s *RedisStore) key(userID string) string { return s.prefix + userID }

func (s *RedisStore) Save(ctx context.Context, state perception.SessionState) error {
	const op = "save"
	if err := validateUserID(op, state.Profile.UserID); err != nil {
		return err
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return perrors.New(perrors.KindCollaborator, component, op, err)
	}
	if err := s.rdb.Set(ctx, s.key(state.Profile.UserID), raw, s.ttl).Err(); err != nil {
		s.log.Warn("redis save failed", "user_id", state.Profile.UserID, "error", err)
		return perrors.New(perrors.KindCollaborator, component, op, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, userID string) (perception.SessionState, error) {
	const op = "load"
	if err := validateUserID(op, userID); err != nil {
		return perception.SessionState{}, err
	}
	raw, err := s.rdb.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return perception.SessionState{}, perrors.Errorf(perrors.KindNotFound, component, op, "no state for user %q", userID)
	}
	if err != nil {
		return perception.SessionState{}, perrors.New(perrors.KindCollaborator, component, op, err)
	}

	var state perception.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return perception.SessionState{}, perrors.New(perrors.KindCollaborator, component, op, fmt.Errorf("decode %s: %w", s.key(userID), err))
	}
	return state, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	const op = "delete"
	if err := validateUserID(op, userID); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.key(userID)).Err(); err != nil {
		return perrors.New(perrors.KindCollaborator, component, op, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
