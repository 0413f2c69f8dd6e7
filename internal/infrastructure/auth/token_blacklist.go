package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocation says why a token may no longer be used
type Revocation int

const (
	NotRevoked Revocation = iota
	// TokenRevoked: this token's JTI was revoked
	TokenRevoked
	// SessionRevoked: every token issued to the user up to a cut-off was revoked
	SessionRevoked
)

// TokenBlacklist revokes access tokens before they expire. Entries only need
// to outlive the tokens they cover, so callers pass the remaining lifetime.
type TokenBlacklist interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	// Check reports whether a token with the given JTI, owner and issue time
	// has been revoked by either mechanism
	Check(ctx context.Context, jti, userID string, issuedAt time.Time) (Revocation, error)
}

// RedisTokenBlacklist stores revocations in Redis so every API instance sees them
type RedisTokenBlacklist struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisTokenBlacklist shares an existing client, normally the one
// backing the occurrence locks
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, prefix: "payout:token:revoked:"}
}

func (b *RedisTokenBlacklist) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.prefix+"jti:"+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeUser stores the current unix second as the user's cut-off
func (b *RedisTokenBlacklist) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.prefix+"user:"+userID, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// Check reads both keys in one pipelined round trip
func (b *RedisTokenBlacklist) Check(ctx context.Context, jti, userID string, issuedAt time.Time) (Revocation, error) {
	var (
		tokenCmd *redis.IntCmd
		userCmd  *redis.StringCmd
	)
	_, err := b.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		if jti != "" {
			tokenCmd = p.Exists(ctx, b.prefix+"jti:"+jti)
		}
		userCmd = p.Get(ctx, b.prefix+"user:"+userID)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return NotRevoked, fmt.Errorf("failed to check token revocation: %w", err)
	}

	if tokenCmd != nil && tokenCmd.Val() > 0 {
		return TokenRevoked, nil
	}
	raw, err := userCmd.Result()
	if errors.Is(err, redis.Nil) {
		return NotRevoked, nil
	}
	if err != nil {
		return NotRevoked, fmt.Errorf("failed to check token revocation: %w", err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return NotRevoked, fmt.Errorf("failed to parse revocation cut-off %q: %w", raw, err)
	}
	if issuedAt.Unix() <= cutoff {
		return SessionRevoked, nil
	}
	return NotRevoked, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is the single-instance fallback used when Redis is
// unreachable, and in tests
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	now     func() time.Time
	tokens  map[string]time.Time // jti -> expiry
	cutoffs map[string]time.Time // userID -> cut-off
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		now:     time.Now,
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
	}
}

func (b *InMemoryTokenBlacklist) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[jti] = b.now().Add(ttl)
	return nil
}

// RevokeUser keeps the cut-off until the process exits; the ttl is ignored
func (b *InMemoryTokenBlacklist) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cutoffs[userID] = b.now()
	return nil
}

func (b *InMemoryTokenBlacklist) Check(_ context.Context, jti, userID string, issuedAt time.Time) (Revocation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if expiry, ok := b.tokens[jti]; ok {
		if b.now().Before(expiry) {
			return TokenRevoked, nil
		}
		delete(b.tokens, jti)
	}
	if cutoff, ok := b.cutoffs[userID]; ok && !issuedAt.After(cutoff) {
		return SessionRevoked, nil
	}
	return NotRevoked, nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
