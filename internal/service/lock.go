package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taxi24/internal/redis"
)

// LocalLockStore is an in-process LockStoreInterface for single-instance deployments.
type LocalLockStore struct {
	mu    sync.Mutex
	locks map[string]localLock
	now   func() time.Time
}

type localLock struct {
	token   string
	expires time.Time
}

// NewLocalLockStore creates an empty LocalLockStore.
func NewLocalLockStore() *LocalLockStore {
	return &LocalLockStore{
		locks: make(map[string]localLock),
		now:   time.Now,
	}
}

// Acquire takes key unless a live lock holds it.
func (s *LocalLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if l, ok := s.locks[key]; ok && now.Before(l.expires) {
		return "", false, nil
	}

	token := uuid.NewString()
	s.locks[key] = localLock{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

// Release frees key if token still owns it.
func (s *LocalLockStore) Release(ctx context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.locks[key]; ok && l.token == token {
		delete(s.locks, key)
	}
	return nil
}

var _ redis.LockStoreInterface = (*LocalLockStore)(nil)
