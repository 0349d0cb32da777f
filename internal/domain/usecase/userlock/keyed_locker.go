package userlock

import (
	"context"
	"sync"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
)

// KeyedLocker serializes work per key (a user token) inside the process, so requests of one user queue
// up in arrival order instead of contending for store locks. Different keys never block each other.
type KeyedLocker struct {
	mu     sync.Mutex
	locks  map[string]*keyLock
	logger coreport.Logger
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLocker creates an empty locker
func NewKeyedLocker(logger coreport.Logger) *KeyedLocker {
	return &KeyedLocker{
		locks:  make(map[string]*keyLock),
		logger: logger,
	}
}

// Lock blocks until key is free or ctx is done. The returned unlock func is safe to call more than once.
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		l.logger.Warn("Context canceled while waiting for user lock", map[string]any{
			"error": ctx.Err().Error(),
		})
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(key, kl)
		})
	}, nil
}

func (l *KeyedLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// Len returns the number of keys currently held or waited on
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
