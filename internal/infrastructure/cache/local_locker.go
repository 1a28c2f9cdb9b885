package cache

import (
	"context"
	"sync"
)

// LocalLocker serializes room operations within one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

// WithLock runs fn while holding the named lock, giving up when ctx ends.
func (l *LocalLocker) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	lk := l.ref(name)
	defer l.unref(name, lk)

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		return busy(ctx, name, ctx.Err())
	}
	defer func() { <-lk.ch }()

	return fn(ctx)
}

// HealthCheck always succeeds.
func (l *LocalLocker) HealthCheck(context.Context) error {
	return nil
}

func (l *LocalLocker) ref(name string) *localLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[name]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[name] = lk
	}
	lk.refs++
	return lk
}

func (l *LocalLocker) unref(name string, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, name)
	}
}
