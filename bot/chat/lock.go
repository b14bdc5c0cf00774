package chat

import (
	"context"
	"sync"
)

// LockThreads is an in-process per-key mutex map. Entries are dropped once unused.
type LockThreads struct {
	mutex   sync.Mutex
	threads map[string]*thread
}

type thread struct {
	ch   chan struct{}
	refs int
}

func NewLockThreads() *LockThreads {
	return &LockThreads{threads: make(map[string]*thread)}
}

func (l *LockThreads) Lock(ctx context.Context, key string) (func(), error) {
	l.mutex.Lock()
	t, exists := l.threads[key]
	if !exists {
		t = &thread{ch: make(chan struct{}, 1)}
		l.threads[key] = t
	}
	t.refs++
	l.mutex.Unlock()

	select {
	case t.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, t)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-t.ch
			l.release(key, t)
		})
	}, nil
}

func (l *LockThreads) release(key string, t *thread) {
	l.mutex.Lock()
	t.refs--
	if t.refs == 0 {
		delete(l.threads, key)
	}
	l.mutex.Unlock()
}

func (l *LockThreads) size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.threads)
}
