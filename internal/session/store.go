package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTTL is how long an idle conversation survives before a fresh
// session is handed out on next contact.
const DefaultTTL = 30 * time.Minute

const sessionKeyPrefix = "session:"

// Store loads and persists per-citizen conversation state.
// Get never returns an expired session: absent or idle-past-TTL keys
// yield a fresh FlowNone session.
type Store interface {
	Get(ctx context.Context, key string) (*Session, error)
	Put(ctx context.Context, key string, sess *Session) error
	Clear(ctx context.Context, key string) error
}

// RedisStore keeps sessions as JSON values with a sliding TTL. Expiry is
// enforced twice: Redis drops the key, and Get re-checks LastActivityAt so
// the memory store used in tests behaves identically.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis:  redisClient,
		tracer: otel.Tracer("civicportal.internal.session"),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Session, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("session: key required")
	}
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	now := s.now().UTC()
	data, err := s.redis.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return New(key, now), nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: load %s: %w", key, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: decode %s: %w", key, err)
	}
	if sess.Expired(now, s.ttl) {
		return New(key, now), nil
	}
	if sess.Collected == nil {
		sess.Collected = map[string]string{}
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, sess *Session) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("session: key required")
	}
	if sess == nil {
		return errors.New("session: session required")
	}
	ctx, span := s.tracer.Start(ctx, "session.put")
	defer span.End()

	sess.Key = key
	sess.LastActivityAt = s.now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: marshal %s: %w", key, err)
	}
	if err := s.redis.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: persist %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("session: key required")
	}
	ctx, span := s.tracer.Start(ctx, "session.clear")
	defer span.End()

	if err := s.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: clear %s: %w", key, err)
	}
	return nil
}

func redisKey(key string) string {
	return sessionKeyPrefix + key
}

// MemoryStore is a mutex-guarded Store for tests and single-node
// USE_MEMORY_STORES deployments. The clock is injectable so TTL expiry
// can be exercised without sleeping.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]*Session
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		data: make(map[string]*Session),
		ttl:  ttl,
		now:  time.Now,
	}
}

// SetClock overrides the store's clock. Test use only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Session, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("session: key required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	sess, ok := s.data[key]
	if !ok || sess.Expired(now, s.ttl) {
		delete(s.data, key)
		return New(key, now), nil
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, sess *Session) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("session: key required")
	}
	if sess == nil {
		return errors.New("session: session required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := sess.Clone()
	stored.Key = key
	stored.LastActivityAt = s.now().UTC()
	s.data[key] = stored
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("session: key required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
