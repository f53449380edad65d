package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends bundles the coordination stores the approval flow needs.
type Backends struct {
	Lock        shared.DecisionLock
	Idempotency shared.IdempotencyStore
	Distributed bool
	client      *redis.Client
}

// BackendsOption configures NewBackends.
type BackendsOption func(*backendsOptions)

type backendsOptions struct {
	logger       *zap.Logger
	requireRedis bool
}

// WithLogger sets the logger used to report the chosen backend.
func WithLogger(logger *zap.Logger) BackendsOption {
	return func(o *backendsOptions) { o.logger = logger }
}

// WithRedisRequired turns a Redis failure into an error instead of a fallback
// to process-local stores.
func WithRedisRequired(required bool) BackendsOption {
	return func(o *backendsOptions) { o.requireRedis = required }
}

// NewBackends connects to Redis when it is enabled and falls back to
// in-memory stores otherwise.
func NewBackends(ctx context.Context, cfg config.RedisConfig, opts ...BackendsOption) (*Backends, error) {
	o := backendsOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	var cause error
	if cfg.Enabled {
		client, err := NewRedisClient(ctx, cfg)
		if err == nil {
			o.logger.Info("Using Redis decision lock and idempotency store", zap.String("addr", cfg.Addr()))
			return &Backends{
				Lock:        NewRedisDecisionLock(client),
				Idempotency: NewRedisIdempotencyStore(client, ""),
				Distributed: true,
				client:      client,
			}, nil
		}
		cause = err
	} else {
		cause = errors.New("redis disabled")
	}

	if o.requireRedis {
		return nil, fmt.Errorf("redis required for decision locking but unavailable: %w", cause)
	}
	o.logger.Warn("Using in-memory decision lock; decisions are only serialized within this process",
		zap.Error(cause))
	return &Backends{
		Lock:        NewInMemoryDecisionLock(),
		Idempotency: NewInMemoryIdempotencyStore(),
	}, nil
}

// Ping reports Redis health; in-memory backends are always healthy.
func (b *Backends) Ping(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	return b.client.Ping(ctx).Err()
}

func (b *Backends) Close() error {
	err := b.Idempotency.Close()
	if b.client != nil {
		err = errors.Join(err, b.client.Close())
	}
	return err
}
