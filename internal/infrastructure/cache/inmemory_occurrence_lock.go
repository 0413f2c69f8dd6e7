package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type heldLock struct {
	token     string
	expiresAt time.Time
}

// InMemoryOccurrenceLock serializes occurrences inside one process. It does
// not coordinate separate instances.
type InMemoryOccurrenceLock struct {
	mu    sync.Mutex
	locks map[string]heldLock
	now   func() time.Time
}

func NewInMemoryOccurrenceLock() *InMemoryOccurrenceLock {
	return &InMemoryOccurrenceLock{
		locks: make(map[string]heldLock),
		now:   time.Now,
	}
}

func (l *InMemoryOccurrenceLock) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.locks[key]; ok && now.Before(held.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.locks[key] = heldLock{token: token, expiresAt: now.Add(ttl)}
	l.sweep(now)
	return token, true, nil
}

func (l *InMemoryOccurrenceLock) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if held, ok := l.locks[key]; ok && held.token == token {
		delete(l.locks, key)
	}
	return nil
}

func (l *InMemoryOccurrenceLock) Close() error { return nil }

// sweep drops expired entries; callers hold mu
func (l *InMemoryOccurrenceLock) sweep(now time.Time) {
	for k, held := range l.locks {
		if !now.Before(held.expiresAt) {
			delete(l.locks, k)
		}
	}
}
