package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type FakeLocker struct {
	Held        map[string]bool
	ReturnError bool
	lock        sync.Mutex
}

func NewFakeLocker() *FakeLocker {
	return &FakeLocker{Held: make(map[string]bool)}
}

func (l *FakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if l.ReturnError {
		return nil, false, fmt.Errorf("could not acquire lock %s", key)
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.Held[key] {
		return nil, false, nil
	}
	l.Held[key] = true
	return func() {
		l.lock.Lock()
		defer l.lock.Unlock()
		delete(l.Held, key)
	}, true, nil
}
