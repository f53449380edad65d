package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token,
// so an expired holder cannot release a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisDecisionLock is a DecisionLock shared by every server instance.
type RedisDecisionLock struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisDecisionLock(client redis.UniversalClient) *RedisDecisionLock {
	return &RedisDecisionLock{client: client, keyPrefix: "lock:"}
}

// Acquire takes the lock with SET NX PX. ErrDecisionInFlight means another
// holder owns it.
func (l *RedisDecisionLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire decision lock: %w", err)
	}
	if !ok {
		return "", shared.ErrDecisionInFlight
	}
	return token, nil
}

// Release drops the lock if token still owns it. Releasing an expired or
// foreign lock is a no-op.
func (l *RedisDecisionLock) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release decision lock: %w", err)
	}
	return nil
}

// InMemoryDecisionLock is a process-local DecisionLock for single-instance
// deployments and tests.
type InMemoryDecisionLock struct {
	mu    sync.Mutex
	held  map[string]heldLock
	clock func() time.Time
}

type heldLock struct {
	token     string
	expiresAt time.Time
}

func NewInMemoryDecisionLock() *InMemoryDecisionLock {
	return &InMemoryDecisionLock{held: make(map[string]heldLock), clock: time.Now}
}

func (l *InMemoryDecisionLock) Acquire(_ context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if h, ok := l.held[key]; ok && now.Before(h.expiresAt) {
		return "", shared.ErrDecisionInFlight
	}
	token := uuid.NewString()
	l.held[key] = heldLock{token: token, expiresAt: now.Add(ttl)}
	return token, nil
}

func (l *InMemoryDecisionLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.held[key]; ok && h.token == token {
		delete(l.held, key)
	}
	return nil
}

var (
	_ shared.DecisionLock = (*RedisDecisionLock)(nil)
	_ shared.DecisionLock = (*InMemoryDecisionLock)(nil)
)
