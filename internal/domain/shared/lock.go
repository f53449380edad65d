package shared

import (
	"context"
	"time"
)

// DecisionLock serializes approval decisions for one count across sessions
// and server instances. Acquire returns a release token on success and
// ErrDecisionInFlight when another holder owns the key.
type DecisionLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Release(ctx context.Context, key, token string) error
}
