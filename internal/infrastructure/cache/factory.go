package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/payout/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OccurrenceLock is implemented by the Redis and in-memory locks
type OccurrenceLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
	Close() error
}

// LockFactory creates occurrence locks based on configuration
type LockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
}

// LockFactoryOption is a functional option for configuring the factory
type LockFactoryOption func(*LockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockFactoryOption {
	return func(f *LockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory lock. Default is true.
func WithInMemoryFallback(allow bool) LockFactoryOption {
	return func(f *LockFactory) {
		f.allowInMemoryFallback = allow
	}
}

func NewLockFactory(cfg config.RedisConfig, opts ...LockFactoryOption) *LockFactory {
	f := &LockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateLock returns a Redis lock when Redis is configured and reachable,
// otherwise the in-memory lock if fallback is allowed.
func (f *LockFactory) CreateLock(ctx context.Context) (OccurrenceLock, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory occurrence lock")
		return NewInMemoryOccurrenceLock(), nil
	}

	client, err := NewRedisClient(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.client = client
		f.logger.Info("using Redis occurrence lock", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisOccurrenceLock(client, ""), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for occurrence locking but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory occurrence lock. "+
		"Approvals on separate instances are then serialized by the database row lock only.",
		zap.Error(err),
	)
	return NewInMemoryOccurrenceLock(), nil
}

// RedisClient returns the client behind the last Redis lock created, or nil
// when the factory fell back to memory. Closing the lock closes the client.
func (f *LockFactory) RedisClient() redis.UniversalClient {
	if f.client == nil {
		return nil
	}
	return f.client
}
