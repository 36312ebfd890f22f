package lifecycle

import (
	"context"
	"sync"
)

// nameLocks serializes operations per server name. Different names never
// contend. Entries are dropped once nobody holds or waits for them.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*nameLock
}

type nameLock struct {
	sem  chan struct{}
	refs int
}

func newNameLocks() *nameLocks {
	return &nameLocks{locks: make(map[string]*nameLock)}
}

// acquire blocks until name is free or ctx is done.
func (l *nameLocks) acquire(ctx context.Context, name string) (release func(), err error) {
	l.mu.Lock()
	nl, ok := l.locks[name]
	if !ok {
		nl = &nameLock{sem: make(chan struct{}, 1)}
		l.locks[name] = nl
	}
	nl.refs++
	l.mu.Unlock()

	select {
	case nl.sem <- struct{}{}:
	case <-ctx.Done():
		l.drop(name, nl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-nl.sem
			l.drop(name, nl)
		})
	}, nil
}

func (l *nameLocks) drop(name string, nl *nameLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	nl.refs--
	if nl.refs == 0 {
		delete(l.locks, name)
	}
}

func (l *nameLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
