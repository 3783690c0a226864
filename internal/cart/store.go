package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"campus-food/internal/xpkg/config"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Store keeps carts between requests. Get returns an empty session when none
// is stored.
type Store interface {
	Get(ctx context.Context, sessionID string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}

type memEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is the single process store used when redis is disabled.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

func (ms *MemoryStore) Get(_ context.Context, sessionID string) (Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.entries[sessionID]
	if !ok {
		return NewSession(sessionID), nil
	}
	if ms.ttl > 0 && ms.now().After(e.expiresAt) {
		delete(ms.entries, sessionID)
		return NewSession(sessionID), nil
	}
	return cloneSession(e.session), nil
}

func (ms *MemoryStore) Save(_ context.Context, s Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries[s.ID] = memEntry{session: cloneSession(s), expiresAt: ms.now().Add(ms.ttl)}
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, sessionID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, sessionID)
	return nil
}

func cloneSession(s Session) Session {
	s.Lines = append([]Line{}, s.Lines...)
	return s
}

const redisKeyPrefix = "cart:"

// RedisStore keeps carts as JSON values that expire after the configured TTL
// of inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.Redis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (rs *RedisStore) Get(ctx context.Context, sessionID string) (Session, error) {
	raw, err := rs.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewSession(sessionID), nil
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "redis get cart")
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, errors.Wrap(err, "decode cart")
	}
	if s.Lines == nil {
		s.Lines = []Line{}
	}
	return s, nil
}

func (rs *RedisStore) Save(ctx context.Context, s Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := rs.client.Set(ctx, redisKeyPrefix+s.ID, raw, rs.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set cart")
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := rs.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return errors.Wrap(err, "redis delete cart")
	}
	return nil
}

// Ping reports whether redis is reachable.
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}
